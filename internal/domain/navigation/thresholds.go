package navigation

// Thresholds are the distance knobs driving state transitions for one tick.
type Thresholds struct {
	// CompletionRadiusMeters is the distance to a maneuver anchor under
	// which the step is considered completed.
	CompletionRadiusMeters float64
	// OffRouteMeters is the perpendicular distance from the polyline above
	// which the traveler is considered off-route.
	OffRouteMeters float64
	// AnnouncementRadiusMeters is the distance to a maneuver anchor under
	// which its instruction is announced.
	AnnouncementRadiusMeters float64
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CompletionRadiusMeters:   20,
		OffRouteMeters:           50,
		AnnouncementRadiusMeters: 200,
	}
}

// ThresholdPolicy resolves the thresholds to apply for a tick, given the
// reported accuracy of the position sample being processed. Whether
// thresholds should widen with poor GPS accuracy is a policy decision, not a
// hard-coded behavior.
type ThresholdPolicy interface {
	Thresholds(accuracyMeters float64) Thresholds
}

// StaticThresholdPolicy always returns the same thresholds regardless of
// reported accuracy.
type StaticThresholdPolicy struct {
	base Thresholds
}

// NewStaticThresholdPolicy creates a policy pinned to the given thresholds.
func NewStaticThresholdPolicy(base Thresholds) *StaticThresholdPolicy {
	return &StaticThresholdPolicy{base: base}
}

// Thresholds returns the configured thresholds.
func (p *StaticThresholdPolicy) Thresholds(_ float64) Thresholds {
	return p.base
}

// AccuracyScaledThresholdPolicy widens thresholds proportionally when the
// reported accuracy radius is worse than a reference accuracy, so a noisy fix
// does not trip false off-route transitions.
type AccuracyScaledThresholdPolicy struct {
	base                    Thresholds
	referenceAccuracyMeters float64
	maxScale                float64
}

// NewAccuracyScaledThresholdPolicy creates a scaling policy. Scaling starts
// above referenceAccuracyMeters and is capped at maxScale.
func NewAccuracyScaledThresholdPolicy(base Thresholds, referenceAccuracyMeters, maxScale float64) *AccuracyScaledThresholdPolicy {
	if referenceAccuracyMeters <= 0 {
		referenceAccuracyMeters = 20
	}
	if maxScale < 1 {
		maxScale = 3
	}
	return &AccuracyScaledThresholdPolicy{
		base:                    base,
		referenceAccuracyMeters: referenceAccuracyMeters,
		maxScale:                maxScale,
	}
}

// Thresholds returns the base thresholds scaled by the accuracy ratio.
func (p *AccuracyScaledThresholdPolicy) Thresholds(accuracyMeters float64) Thresholds {
	if accuracyMeters <= p.referenceAccuracyMeters {
		return p.base
	}
	scale := accuracyMeters / p.referenceAccuracyMeters
	if scale > p.maxScale {
		scale = p.maxScale
	}
	return Thresholds{
		CompletionRadiusMeters:   p.base.CompletionRadiusMeters * scale,
		OffRouteMeters:           p.base.OffRouteMeters * scale,
		AnnouncementRadiusMeters: p.base.AnnouncementRadiusMeters * scale,
	}
}
