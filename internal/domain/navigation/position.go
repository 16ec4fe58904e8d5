package navigation

import (
	"errors"
	"time"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
)

// ErrPositionUnavailable indicates no position sample has been accepted yet.
// Navigation start is deferred, not failed, when this is returned.
var ErrPositionUnavailable = errors.New("position unavailable")

// Position is a single location sample from the platform's location source.
// One "latest valid" instance is retained per session; sample history is not
// kept beyond what the tracker needs for noise filtering.
type Position struct {
	Coordinate     geo.Coordinate `json:"coordinate"`
	AccuracyMeters float64        `json:"accuracy_meters"`
	HeadingDegrees *float64       `json:"heading_degrees,omitempty"`
	SpeedMps       *float64       `json:"speed_mps,omitempty"`
	CapturedAt     time.Time      `json:"captured_at"`
}
