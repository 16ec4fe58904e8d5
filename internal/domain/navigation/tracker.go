package navigation

import (
	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
)

// RejectReason explains why the tracker dropped a sample.
type RejectReason string

const (
	RejectNone       RejectReason = ""
	RejectInvalid    RejectReason = "invalid_coordinate"
	RejectInaccurate RejectReason = "low_accuracy"
	RejectJitter     RejectReason = "jitter"
)

// TrackerConfig tunes the position filter.
type TrackerConfig struct {
	// AccuracyCeilingMeters is the worst accepted accuracy radius once a
	// better sample exists for the session.
	AccuracyCeilingMeters float64
	// JitterEpsilonMeters suppresses samples that barely move, which would
	// otherwise drive false step-advancement from GPS noise.
	JitterEpsilonMeters float64
}

// DefaultTrackerConfig returns the stock filter tuning.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		AccuracyCeilingMeters: 100,
		JitterEpsilonMeters:   2,
	}
}

// Tracker ingests raw position samples and maintains the last known good
// position. It is purely a filter: the surrounding location source owns the
// read cadence, and no network or timers live here.
type Tracker struct {
	cfg  TrackerConfig
	last *Position
}

// NewTracker creates a Tracker with the given config, falling back to
// defaults for zero values.
func NewTracker(cfg TrackerConfig) *Tracker {
	def := DefaultTrackerConfig()
	if cfg.AccuracyCeilingMeters <= 0 {
		cfg.AccuracyCeilingMeters = def.AccuracyCeilingMeters
	}
	if cfg.JitterEpsilonMeters <= 0 {
		cfg.JitterEpsilonMeters = def.JitterEpsilonMeters
	}
	return &Tracker{cfg: cfg}
}

// Ingest applies the quality filter to a sample. Accepted samples become the
// new last known good position.
//
// A sample is rejected when its accuracy radius exceeds the ceiling while a
// better-accuracy sample already exists, or when its displacement from the
// last accepted sample is below the jitter epsilon without strictly improving
// accuracy.
func (t *Tracker) Ingest(sample Position) (bool, RejectReason) {
	if !sample.Coordinate.IsValid() {
		return false, RejectInvalid
	}

	if t.last != nil {
		if sample.AccuracyMeters > t.cfg.AccuracyCeilingMeters && t.last.AccuracyMeters < sample.AccuracyMeters {
			return false, RejectInaccurate
		}
		displacement := geo.Distance(sample.Coordinate, t.last.Coordinate)
		if displacement < t.cfg.JitterEpsilonMeters && sample.AccuracyMeters >= t.last.AccuracyMeters {
			return false, RejectJitter
		}
	}

	s := sample
	t.last = &s
	return true, RejectNone
}

// LastKnown returns the last accepted sample, or ErrPositionUnavailable when
// nothing has been accepted yet.
func (t *Tracker) LastKnown() (Position, error) {
	if t.last == nil {
		return Position{}, ErrPositionUnavailable
	}
	return *t.last, nil
}

// Reset discards the tracker's state. Used when a navigation session ends so
// stale fixes cannot seed the next session.
func (t *Tracker) Reset() {
	t.last = nil
}
