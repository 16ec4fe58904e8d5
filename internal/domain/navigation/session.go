package navigation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// ErrRecalculationFailed indicates the provider could not recompute a route
// after an off-route detection. Recoverable: the session stays off-route and
// the recalculation is retried on the next debounce trigger.
var ErrRecalculationFailed = errors.New("recalculation failed")

// ErrNoSession indicates no navigation session is currently active.
var ErrNoSession = errors.New("no active navigation session")

// Session is the mutable aggregate owning the live navigation state for one
// traveler. Only the navigation state machine mutates it; map-matching and
// announcement dispatch consume read-only snapshots.
type Session struct {
	id          uuid.UUID
	origin      geo.Coordinate
	destination geo.Coordinate
	travelMode  route.TravelMode

	route                    *route.Route
	state                    State
	currentStepIndex         int
	distanceAlongRouteMeters float64
	remainingDistanceMeters  float64
	lastAnnouncedStepIndex   int
	recalculationInFlight    bool
	recalculations           int

	startedAt time.Time
	updatedAt time.Time
}

// NewSession creates a session for a confirmed route. The session starts
// idle; guidance begins with the first accepted position sample.
func NewSession(origin, destination geo.Coordinate, mode route.TravelMode, r *route.Route) *Session {
	now := time.Now().UTC()
	return &Session{
		id:                      uuid.New(),
		origin:                  origin,
		destination:             destination,
		travelMode:              mode,
		route:                   r,
		state:                   StateIdle,
		lastAnnouncedStepIndex:  -1,
		remainingDistanceMeters: r.TotalDistanceMeters,
		startedAt:               now,
		updatedAt:               now,
	}
}

// --- Getters ---

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Origin returns where navigation began.
func (s *Session) Origin() geo.Coordinate { return s.origin }

// Destination returns the original destination, used for recalculation.
func (s *Session) Destination() geo.Coordinate { return s.destination }

// TravelMode returns the routing profile of the session.
func (s *Session) TravelMode() route.TravelMode { return s.travelMode }

// Route returns the active route.
func (s *Session) Route() *route.Route { return s.route }

// State returns the current session state.
func (s *Session) State() State { return s.state }

// CurrentStepIndex returns the index of the step the traveler is on.
func (s *Session) CurrentStepIndex() int { return s.currentStepIndex }

// CurrentStep returns the step whose instruction currently applies.
func (s *Session) CurrentStep() route.Step { return s.route.Steps[s.currentStepIndex] }

// RemainingDistanceMeters returns the clamped distance left to travel.
func (s *Session) RemainingDistanceMeters() float64 { return s.remainingDistanceMeters }

// RecalculationInFlight reports whether a recalculation is outstanding.
func (s *Session) RecalculationInFlight() bool { return s.recalculationInFlight }

// Recalculations returns the number of route replacements so far.
func (s *Session) Recalculations() int { return s.recalculations }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// --- Behavior ---

func (s *Session) transitionTo(target State) error {
	if !s.state.CanTransitionTo(target) {
		return &InvalidStateError{From: s.state, To: target}
	}
	s.state = target
	s.updatedAt = time.Now().UTC()
	return nil
}

// Begin activates guidance once a valid position exists.
func (s *Session) Begin() error {
	return s.transitionTo(StateNavigating)
}

// SetRecalculationInFlight flips the single-recalculation guard.
func (s *Session) SetRecalculationInFlight(inFlight bool) {
	s.recalculationInFlight = inFlight
	s.updatedAt = time.Now().UTC()
}

// ReplaceRoute swaps in a recalculated route, resetting progress to the new
// route's first step and returning the session to navigating.
func (s *Session) ReplaceRoute(r *route.Route) error {
	if s.state == StateOffRoute {
		if err := s.transitionTo(StateNavigating); err != nil {
			return err
		}
	}
	s.route = r
	s.currentStepIndex = 0
	s.lastAnnouncedStepIndex = -1
	s.distanceAlongRouteMeters = 0
	s.remainingDistanceMeters = r.TotalDistanceMeters
	s.recalculationInFlight = false
	s.recalculations++
	s.updatedAt = time.Now().UTC()
	return nil
}

// TickResult reports what a single position update did to the session, so
// the surrounding service can dispatch side effects (announcements, debounce
// timers, recalculation, events).
type TickResult struct {
	// StepAdvanced is true when the completion radius advanced the step.
	StepAdvanced bool
	// Arrived is true when the advancement ran past the arrival step.
	Arrived bool
	// WentOffRoute is true on the tick the off-route threshold was first
	// crossed (the debounce window should start).
	WentOffRoute bool
	// StillOffRoute is true while deviation persists on subsequent ticks.
	StillOffRoute bool
	// Rejoined is true when the traveler came back within the threshold.
	Rejoined bool
	// Announce carries the instruction to speak this tick, or "".
	Announce string

	DistanceToManeuverMeters float64
	DistanceToRouteMeters    float64
}

// Apply runs one accepted position through the transition rules while the
// session is navigating or off-route. Updates are strictly ordered by the
// caller; Apply itself never blocks.
func (s *Session) Apply(pos Position, th Thresholds) (TickResult, error) {
	if s.state != StateNavigating && s.state != StateOffRoute {
		return TickResult{}, &InvalidStateError{From: s.state, To: StateNavigating}
	}

	var res TickResult
	res.DistanceToManeuverMeters = DistanceToManeuver(pos, s.CurrentStep())

	// Rule 1: step advancement. Advancement takes priority over the
	// off-route check, which is skipped on an advancing tick: at sharp
	// turns with sparse polyline sampling the two can disagree.
	if res.DistanceToManeuverMeters < th.CompletionRadiusMeters {
		res.StepAdvanced = true
		if s.currentStepIndex >= len(s.route.Steps)-1 {
			if err := s.transitionTo(StateArrived); err != nil {
				return res, err
			}
			s.remainingDistanceMeters = 0
			s.distanceAlongRouteMeters = s.route.TotalDistanceMeters
			res.Arrived = true
			return res, nil
		}
		s.currentStepIndex++
		s.updatedAt = time.Now().UTC()
		res.DistanceToManeuverMeters = DistanceToManeuver(pos, s.CurrentStep())
	}

	// Rules 2 and 4: map-match and progress. The polyline scan still runs on
	// advancing ticks so remaining distance stays current.
	match := MatchPosition(pos, s.route)
	res.DistanceToRouteMeters = match.DistanceToRouteMeters
	s.distanceAlongRouteMeters = match.DistanceAlongRouteMeters
	s.remainingDistanceMeters = s.route.TotalDistanceMeters - match.DistanceAlongRouteMeters
	if s.remainingDistanceMeters < 0 {
		s.remainingDistanceMeters = 0
	}
	s.updatedAt = time.Now().UTC()

	if !res.StepAdvanced {
		if match.DistanceToRouteMeters > th.OffRouteMeters {
			if s.state == StateNavigating {
				if err := s.transitionTo(StateOffRoute); err != nil {
					return res, err
				}
				res.WentOffRoute = true
			} else {
				res.StillOffRoute = true
			}
		} else if s.state == StateOffRoute {
			if err := s.transitionTo(StateNavigating); err != nil {
				return res, err
			}
			res.Rejoined = true
		}
	}

	// Announcement dispatch: at most once per step index.
	if s.shouldAnnounce(res.DistanceToManeuverMeters, th.AnnouncementRadiusMeters) {
		s.lastAnnouncedStepIndex = s.currentStepIndex
		res.Announce = s.CurrentStep().Instruction
	}

	return res, nil
}

// shouldAnnounce is true exactly once per step: when the distance to the
// current maneuver first drops below the announcement radius.
func (s *Session) shouldAnnounce(distanceToManeuver, radius float64) bool {
	return s.lastAnnouncedStepIndex != s.currentStepIndex && distanceToManeuver < radius
}

// Snapshot is the read-only view handed to display sinks. The core never
// reads UI state back.
type Snapshot struct {
	ID                      uuid.UUID        `json:"id"`
	State                   State            `json:"state"`
	TravelMode              route.TravelMode `json:"travel_mode"`
	CurrentStepIndex        int              `json:"current_step_index"`
	Instruction             string           `json:"instruction"`
	StreetName              string           `json:"street_name"`
	RemainingDistanceMeters float64          `json:"remaining_distance_meters"`
	RemainingDistanceText   string           `json:"remaining_distance_text"`
	ProgressFraction        float64          `json:"progress_fraction"`
	RecalculationInFlight   bool             `json:"recalculation_in_flight"`
	Recalculations          int              `json:"recalculations"`
	StartedAt               time.Time        `json:"started_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// Snapshot returns an immutable view of the session for display sinks.
func (s *Session) Snapshot() Snapshot {
	step := s.CurrentStep()
	progress := 0.0
	if s.route.TotalDistanceMeters > 0 {
		progress = s.distanceAlongRouteMeters / s.route.TotalDistanceMeters
		if progress > 1 {
			progress = 1
		} else if progress < 0 {
			progress = 0
		}
	}
	return Snapshot{
		ID:                      s.id,
		State:                   s.state,
		TravelMode:              s.travelMode,
		CurrentStepIndex:        s.currentStepIndex,
		Instruction:             step.Instruction,
		StreetName:              step.StreetName,
		RemainingDistanceMeters: s.remainingDistanceMeters,
		RemainingDistanceText:   route.FormatDistance(s.remainingDistanceMeters),
		ProgressFraction:        progress,
		RecalculationInFlight:   s.recalculationInFlight,
		Recalculations:          s.recalculations,
		StartedAt:               s.startedAt,
		UpdatedAt:               s.updatedAt,
	}
}
