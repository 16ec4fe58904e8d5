package navigation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// ErrTripNotFound indicates no trip exists for the given identifier.
var ErrTripNotFound = errors.New("trip not found")

// TripOutcome records how a navigation session ended.
type TripOutcome string

const (
	TripOutcomeArrived TripOutcome = "arrived"
	TripOutcomeStopped TripOutcome = "stopped"
)

// Trip is the persisted summary of a finished navigation session.
type Trip struct {
	ID                  uuid.UUID
	SessionID           uuid.UUID
	Origin              geo.Coordinate
	Destination         geo.Coordinate
	TravelMode          route.TravelMode
	TotalDistanceMeters float64
	TraveledMeters      float64
	Outcome             TripOutcome
	Recalculations      int
	StartedAt           time.Time
	EndedAt             time.Time
}

// NewTrip summarizes a finished session into a trip record.
func NewTrip(s *Session, outcome TripOutcome) *Trip {
	return &Trip{
		ID:                  uuid.New(),
		SessionID:           s.ID(),
		Origin:              s.Origin(),
		Destination:         s.Destination(),
		TravelMode:          s.TravelMode(),
		TotalDistanceMeters: s.Route().TotalDistanceMeters,
		TraveledMeters:      s.Route().TotalDistanceMeters - s.RemainingDistanceMeters(),
		Outcome:             outcome,
		Recalculations:      s.Recalculations(),
		StartedAt:           s.StartedAt(),
		EndedAt:             time.Now().UTC(),
	}
}

// TripRepository is the persistence collaborator at its interface boundary.
type TripRepository interface {
	Save(ctx context.Context, trip *Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*Trip, error)
	List(ctx context.Context, page, limit int) ([]*Trip, int64, error)
}
