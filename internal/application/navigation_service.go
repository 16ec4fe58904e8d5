package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
	"github.com/wayfinder-mobility/service-navigation/internal/events"
	"github.com/wayfinder-mobility/service-navigation/internal/kafka"
	"github.com/wayfinder-mobility/service-navigation/internal/metrics"
)

const eventSource = "service-navigation"

// EventPublisher publishes CloudEvents to a Kafka topic. Satisfied by
// kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// StartNavigationRequest is the input for starting a guidance session.
type StartNavigationRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	TravelMode  route.TravelMode
}

// NavigationService orchestrates the guidance pipeline: it owns the single
// active session, feeds accepted position samples through the state machine
// and dispatches the resulting side effects (announcements, events, debounce
// timers, recalculation).
//
// All session access is serialized by the mutex, so position updates are
// applied strictly in arrival order.
type NavigationService struct {
	provider    route.Provider
	trips       navigation.TripRepository
	producer    EventPublisher
	eventsTopic string
	announcer   *navigation.Announcer
	policy      navigation.ThresholdPolicy
	logger      *zap.Logger

	trackerCfg navigation.TrackerConfig
	debounce   time.Duration

	mu            sync.Mutex
	session       *navigation.Session
	tracker       *navigation.Tracker
	tripPersisted bool
	generation    uint64
	debounceTimer *time.Timer
}

// NewNavigationService creates a NavigationService.
func NewNavigationService(
	provider route.Provider,
	trips navigation.TripRepository,
	producer EventPublisher,
	eventsTopic string,
	announcer *navigation.Announcer,
	policy navigation.ThresholdPolicy,
	trackerCfg navigation.TrackerConfig,
	debounce time.Duration,
	logger *zap.Logger,
) *NavigationService {
	return &NavigationService{
		provider:    provider,
		trips:       trips,
		producer:    producer,
		eventsTopic: eventsTopic,
		announcer:   announcer,
		policy:      policy,
		trackerCfg:  trackerCfg,
		debounce:    debounce,
		logger:      logger,
	}
}

// StartNavigation requests a route and begins a new guidance session.
// Any previously active session is discarded unconditionally.
func (s *NavigationService) StartNavigation(ctx context.Context, req StartNavigationRequest) (*navigation.Snapshot, error) {
	if !req.Origin.IsValid() || !req.Destination.IsValid() {
		return nil, fmt.Errorf("%w: coordinate out of range", route.ErrInvalidRoute)
	}
	if !req.TravelMode.IsValid() {
		return nil, fmt.Errorf("%w: unknown travel mode %q", route.ErrInvalidRoute, req.TravelMode)
	}

	r, err := s.provider.RequestRoute(ctx, req.Origin, req.Destination, req.TravelMode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.finalizeLocked(ctx, navigation.TripOutcomeStopped)
	}

	s.session = navigation.NewSession(req.Origin, req.Destination, req.TravelMode, r)
	s.tracker = navigation.NewTracker(s.trackerCfg)
	s.tripPersisted = false
	s.generation++

	metrics.ActiveSession.Set(1)
	metrics.RemainingDistanceMeters.Set(r.TotalDistanceMeters)

	s.logger.Info("navigation started",
		zap.String("session_id", s.session.ID().String()),
		zap.String("travel_mode", string(req.TravelMode)),
		zap.Float64("total_distance_meters", r.TotalDistanceMeters),
	)
	s.publishSessionEvent(ctx, events.NavigationStarted)

	snap := s.session.Snapshot()
	return &snap, nil
}

// HandlePosition runs one raw position sample through the filter and, when
// accepted, through the navigation state machine. Rejected samples leave the
// session untouched.
func (s *NavigationService) HandlePosition(ctx context.Context, sample navigation.Position) (*navigation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, navigation.ErrNoSession
	}

	ok, reason := s.tracker.Ingest(sample)
	if !ok {
		metrics.PositionSamplesRejected.WithLabelValues(string(reason)).Inc()
		s.logger.Debug("position sample rejected", zap.String("reason", string(reason)))
		snap := s.session.Snapshot()
		return &snap, nil
	}
	metrics.PositionSamplesIngested.Inc()

	// The first accepted fix activates guidance.
	if s.session.State() == navigation.StateIdle {
		if err := s.session.Begin(); err != nil {
			return nil, err
		}
		s.logger.Info("guidance active",
			zap.String("session_id", s.session.ID().String()),
		)
	}
	if s.session.State().IsTerminal() {
		snap := s.session.Snapshot()
		return &snap, nil
	}

	th := s.policy.Thresholds(sample.AccuracyMeters)
	res, err := s.session.Apply(sample, th)
	if err != nil {
		return nil, err
	}

	s.dispatchLocked(ctx, res)

	snap := s.session.Snapshot()
	metrics.RemainingDistanceMeters.Set(snap.RemainingDistanceMeters)
	return &snap, nil
}

// dispatchLocked turns a tick result into side effects. Caller holds the
// mutex and guarantees the session is non-nil.
func (s *NavigationService) dispatchLocked(ctx context.Context, res navigation.TickResult) {
	if res.Announce != "" {
		metrics.Announcements.Inc()
		s.announcer.Announce(ctx, res.Announce)
		s.publishEvent(ctx, events.NavigationAnnounced, events.AnnouncementEvent{
			SessionID:   s.session.ID().String(),
			StepIndex:   s.session.CurrentStepIndex(),
			Instruction: res.Announce,
			OccurredAt:  time.Now().UTC(),
		})
	}

	switch {
	case res.Arrived:
		metrics.Arrivals.Inc()
		s.cancelDebounceLocked()
		s.logger.Info("destination reached",
			zap.String("session_id", s.session.ID().String()),
		)
		s.publishSessionEvent(ctx, events.NavigationArrived)
		s.persistTripLocked(ctx, navigation.TripOutcomeArrived)

	case res.StepAdvanced:
		metrics.StepAdvancements.Inc()
		s.logger.Debug("step advanced",
			zap.String("session_id", s.session.ID().String()),
			zap.Int("step_index", s.session.CurrentStepIndex()),
		)
		s.publishSessionEvent(ctx, events.NavigationStepAdvanced)

	case res.WentOffRoute:
		metrics.OffRouteEvents.Inc()
		s.logger.Info("off route",
			zap.String("session_id", s.session.ID().String()),
			zap.Float64("distance_to_route_meters", res.DistanceToRouteMeters),
		)
		s.publishSessionEvent(ctx, events.NavigationOffRoute)
		s.armDebounceLocked()

	case res.StillOffRoute:
		// A failed recalculation leaves the session off-route with no timer
		// pending. The next deviating sample re-arms the debounce.
		if s.debounceTimer == nil && !s.session.RecalculationInFlight() {
			s.armDebounceLocked()
		}

	case res.Rejoined:
		s.cancelDebounceLocked()
		s.logger.Info("rejoined route",
			zap.String("session_id", s.session.ID().String()),
		)
		s.publishSessionEvent(ctx, events.NavigationRejoined)
	}
}

// armDebounceLocked starts the off-route debounce window. When it elapses
// without the traveler rejoining, a recalculation is kicked off.
func (s *NavigationService) armDebounceLocked() {
	gen := s.generation
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.onDebounceElapsed(gen)
	})
}

func (s *NavigationService) cancelDebounceLocked() {
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
}

func (s *NavigationService) onDebounceElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A fire from a torn-down session must not clear a timer that the
	// current session armed.
	if gen != s.generation || s.session == nil {
		return
	}
	s.debounceTimer = nil
	if s.session.State() != navigation.StateOffRoute || s.session.RecalculationInFlight() {
		return
	}

	pos, err := s.tracker.LastKnown()
	if err != nil {
		return
	}

	s.session.SetRecalculationInFlight(true)
	s.logger.Info("off-route debounce elapsed, recalculating",
		zap.String("session_id", s.session.ID().String()),
	)

	destination := s.session.Destination()
	mode := s.session.TravelMode()
	go s.recalculate(gen, pos.Coordinate, destination, mode)
}

// recalculate runs the provider call off the session lock and applies the
// result only if the session that requested it is still the active one.
func (s *NavigationService) recalculate(gen uint64, from, destination geo.Coordinate, mode route.TravelMode) {
	ctx := context.Background()
	r, err := s.provider.RequestRoute(ctx, from, destination, mode)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.session == nil {
		s.logger.Debug("stale recalculation result discarded")
		return
	}

	if err != nil {
		metrics.Recalculations.WithLabelValues("failure").Inc()
		s.session.SetRecalculationInFlight(false)
		s.logger.Error("recalculation failed",
			zap.String("session_id", s.session.ID().String()),
			zap.Error(err),
		)
		s.publishEvent(ctx, events.NavigationRerouteFail, events.RerouteFailedEvent{
			SessionID:  s.session.ID().String(),
			Reason:     err.Error(),
			OccurredAt: time.Now().UTC(),
		})
		return
	}

	if s.session.State() != navigation.StateOffRoute {
		// The traveler rejoined or arrived while the provider was working;
		// the fresh route is no longer wanted.
		s.session.SetRecalculationInFlight(false)
		s.logger.Debug("recalculated route discarded",
			zap.String("session_id", s.session.ID().String()),
			zap.String("state", s.session.State().String()),
		)
		return
	}
	if err := s.session.ReplaceRoute(r); err != nil {
		s.session.SetRecalculationInFlight(false)
		s.logger.Error("failed to apply recalculated route",
			zap.String("session_id", s.session.ID().String()),
			zap.Error(err),
		)
		return
	}

	metrics.Recalculations.WithLabelValues("success").Inc()
	metrics.RemainingDistanceMeters.Set(r.TotalDistanceMeters)
	s.logger.Info("route recalculated",
		zap.String("session_id", s.session.ID().String()),
		zap.Float64("total_distance_meters", r.TotalDistanceMeters),
	)
	s.publishSessionEvent(ctx, events.NavigationRerouted)
}

// StopNavigation ends the active session, persisting it as a stopped trip
// unless it already arrived.
func (s *NavigationService) StopNavigation(ctx context.Context) (*navigation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, navigation.ErrNoSession
	}

	snap := s.session.Snapshot()
	s.logger.Info("navigation stopped",
		zap.String("session_id", s.session.ID().String()),
		zap.String("state", s.session.State().String()),
	)
	s.publishSessionEvent(ctx, events.NavigationStopped)
	s.finalizeLocked(ctx, navigation.TripOutcomeStopped)

	return &snap, nil
}

// Snapshot returns the current view of the active session.
func (s *NavigationService) Snapshot(_ context.Context) (*navigation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, navigation.ErrNoSession
	}
	snap := s.session.Snapshot()
	return &snap, nil
}

// ActiveRoute returns the route the active session is following.
func (s *NavigationService) ActiveRoute(_ context.Context) (*route.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, navigation.ErrNoSession
	}
	return s.session.Route(), nil
}

// GetTrip returns a finished trip by ID.
func (s *NavigationService) GetTrip(ctx context.Context, id uuid.UUID) (*navigation.Trip, error) {
	return s.trips.FindByID(ctx, id)
}

// ListTrips returns finished trips with pagination.
func (s *NavigationService) ListTrips(ctx context.Context, page, limit int) ([]*navigation.Trip, int64, error) {
	return s.trips.List(ctx, page, limit)
}

// finalizeLocked persists the session as a trip if needed and tears down
// all session state. Late timer fires and recalculation results become
// no-ops through the generation counter.
func (s *NavigationService) finalizeLocked(ctx context.Context, outcome navigation.TripOutcome) {
	s.persistTripLocked(ctx, outcome)
	s.cancelDebounceLocked()
	s.generation++
	s.session = nil
	s.tracker = nil
	s.tripPersisted = false
	metrics.ActiveSession.Set(0)
	metrics.RemainingDistanceMeters.Set(0)
}

// persistTripLocked saves the trip summary once per session. Persistence is
// best-effort: a failing repository never blocks guidance teardown.
func (s *NavigationService) persistTripLocked(ctx context.Context, outcome navigation.TripOutcome) {
	if s.tripPersisted || s.session == nil {
		return
	}
	trip := navigation.NewTrip(s.session, outcome)
	if err := s.trips.Save(ctx, trip); err != nil {
		s.logger.Error("failed to persist trip",
			zap.String("session_id", s.session.ID().String()),
			zap.Error(err),
		)
		return
	}
	s.tripPersisted = true
}

func (s *NavigationService) publishSessionEvent(ctx context.Context, eventType string) {
	s.publishEvent(ctx, eventType, events.SessionEvent{
		SessionID:               s.session.ID().String(),
		State:                   s.session.State().String(),
		CurrentStepIndex:        s.session.CurrentStepIndex(),
		RemainingDistanceMeters: s.session.RemainingDistanceMeters(),
		OccurredAt:              time.Now().UTC(),
	})
}

func (s *NavigationService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, s.eventsTopic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
