package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
)

// ErrRouteUnavailable indicates the provider or network failed. It is
// recoverable: callers may retry or fall back.
var ErrRouteUnavailable = errors.New("route unavailable")

// TravelMode selects the routing profile used by the provider.
type TravelMode string

const (
	TravelModeDriving TravelMode = "driving"
	TravelModeWalking TravelMode = "walking"
	TravelModeCycling TravelMode = "cycling"
)

// IsValid returns true if the travel mode is recognized.
func (m TravelMode) IsValid() bool {
	switch m {
	case TravelModeDriving, TravelModeWalking, TravelModeCycling:
		return true
	}
	return false
}

// ParseTravelMode converts a string to a TravelMode, defaulting to driving
// for the empty string and erroring on anything unrecognized.
func ParseTravelMode(s string) (TravelMode, error) {
	if s == "" {
		return TravelModeDriving, nil
	}
	mode := TravelMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid travel mode: %s", s)
	}
	return mode, nil
}

// Provider computes routes between two coordinates. The navigation core does
// not know or care how the route is fetched (HTTP, cache, mock).
type Provider interface {
	// RequestRoute returns a normalized route from origin to destination, or
	// an error wrapping ErrRouteUnavailable (provider/network failure) or
	// ErrInvalidRoute (malformed payload).
	RequestRoute(ctx context.Context, origin, destination geo.Coordinate, mode TravelMode) (*Route, error)
}
