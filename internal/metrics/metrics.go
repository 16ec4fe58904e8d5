package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PositionSamplesIngested counts samples accepted by the position filter.
	PositionSamplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_position_samples_ingested_total",
		Help: "Number of raw position samples accepted by the position filter.",
	})

	// PositionSamplesRejected counts discarded samples, labelled by reason.
	PositionSamplesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navigation_position_samples_rejected_total",
		Help: "Number of raw position samples discarded by the position filter.",
	}, []string{"reason"})

	// StepAdvancements counts maneuver completions across all sessions.
	StepAdvancements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_step_advancements_total",
		Help: "Number of route steps completed.",
	})

	// OffRouteEvents counts navigating-to-off-route transitions.
	OffRouteEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_off_route_events_total",
		Help: "Number of transitions from navigating to off-route.",
	})

	// Recalculations counts route recalculation attempts by result.
	Recalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navigation_recalculations_total",
		Help: "Number of route recalculations, labelled success or failure.",
	}, []string{"result"})

	// Announcements counts instruction announcements dispatched.
	Announcements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_announcements_total",
		Help: "Number of instruction announcements dispatched.",
	})

	// Arrivals counts sessions that reached their destination.
	Arrivals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_arrivals_total",
		Help: "Number of sessions that reached their destination.",
	})

	// ActiveSession reports whether a navigation session is live (0 or 1).
	ActiveSession = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navigation_active_session",
		Help: "Whether a navigation session is currently active.",
	})

	// RemainingDistanceMeters reports the remaining route distance of the
	// active session.
	RemainingDistanceMeters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navigation_remaining_distance_meters",
		Help: "Remaining route distance of the active session in meters.",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
