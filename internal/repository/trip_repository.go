package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// TripModel is the GORM model for the trips table.
type TripModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	OriginLat           float64   `gorm:"not null"`
	OriginLng           float64   `gorm:"not null"`
	DestinationLat      float64   `gorm:"not null"`
	DestinationLng      float64   `gorm:"not null"`
	TravelMode          string    `gorm:"not null;size:20"`
	TotalDistanceMeters float64   `gorm:"not null"`
	TraveledMeters      float64   `gorm:"not null"`
	Outcome             string    `gorm:"not null;size:20;index"`
	Recalculations      int       `gorm:"not null;default:0"`
	StartedAt           time.Time `gorm:"not null"`
	EndedAt             time.Time `gorm:"not null;index"`
	CreatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TripModel) TableName() string {
	return "trips"
}

// GormTripRepository is the GORM-based implementation of TripRepository.
type GormTripRepository struct {
	db *gorm.DB
}

// NewGormTripRepository creates a new GormTripRepository.
func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

// Save persists a finished trip.
func (r *GormTripRepository) Save(ctx context.Context, trip *navigation.Trip) error {
	if err := r.db.WithContext(ctx).Create(toTripModel(trip)).Error; err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// FindByID retrieves a trip by its unique identifier.
func (r *GormTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*navigation.Trip, error) {
	var model TripModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, navigation.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}
	return toDomainTrip(&model), nil
}

// List retrieves finished trips with pagination, most recent first.
func (r *GormTripRepository) List(ctx context.Context, page, limit int) ([]*navigation.Trip, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TripModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	var models []TripModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("ended_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}

	trips := make([]*navigation.Trip, len(models))
	for i, m := range models {
		trips[i] = toDomainTrip(&m)
	}
	return trips, total, nil
}

func toTripModel(t *navigation.Trip) *TripModel {
	return &TripModel{
		ID:                  t.ID,
		SessionID:           t.SessionID,
		OriginLat:           t.Origin.Lat,
		OriginLng:           t.Origin.Lng,
		DestinationLat:      t.Destination.Lat,
		DestinationLng:      t.Destination.Lng,
		TravelMode:          string(t.TravelMode),
		TotalDistanceMeters: t.TotalDistanceMeters,
		TraveledMeters:      t.TraveledMeters,
		Outcome:             string(t.Outcome),
		Recalculations:      t.Recalculations,
		StartedAt:           t.StartedAt,
		EndedAt:             t.EndedAt,
	}
}

func toDomainTrip(m *TripModel) *navigation.Trip {
	return &navigation.Trip{
		ID:                  m.ID,
		SessionID:           m.SessionID,
		Origin:              geo.Coordinate{Lat: m.OriginLat, Lng: m.OriginLng},
		Destination:         geo.Coordinate{Lat: m.DestinationLat, Lng: m.DestinationLng},
		TravelMode:          route.TravelMode(m.TravelMode),
		TotalDistanceMeters: m.TotalDistanceMeters,
		TraveledMeters:      m.TraveledMeters,
		Outcome:             navigation.TripOutcome(m.Outcome),
		Recalculations:      m.Recalculations,
		StartedAt:           m.StartedAt,
		EndedAt:             m.EndedAt,
	}
}
