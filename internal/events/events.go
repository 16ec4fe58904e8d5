package events

import "time"

// Kafka topics owned by or consumed by this service.
const (
	// TopicNavigationEvents carries guidance lifecycle events published by
	// this service.
	TopicNavigationEvents = "navigation.events"

	// TopicNavigationPositions carries raw position samples published by
	// the mobile gateway.
	TopicNavigationPositions = "navigation.positions"
)

// CloudEvent types published on TopicNavigationEvents.
const (
	NavigationStarted      = "navigation.started"
	NavigationStepAdvanced = "navigation.step_advanced"
	NavigationOffRoute     = "navigation.off_route"
	NavigationRejoined     = "navigation.rejoined"
	NavigationRerouted     = "navigation.rerouted"
	NavigationRerouteFail  = "navigation.reroute_failed"
	NavigationArrived      = "navigation.arrived"
	NavigationStopped      = "navigation.stopped"
	NavigationAnnounced    = "navigation.announced"
)

// CloudEvent types consumed from TopicNavigationPositions.
const (
	PositionSampleReceived = "navigation.position.sample"
)

// SessionEvent is the common payload for guidance lifecycle events.
type SessionEvent struct {
	SessionID               string    `json:"session_id"`
	State                   string    `json:"state"`
	CurrentStepIndex        int       `json:"current_step_index"`
	RemainingDistanceMeters float64   `json:"remaining_distance_meters"`
	OccurredAt              time.Time `json:"occurred_at"`
}

// AnnouncementEvent is published when an instruction is spoken.
type AnnouncementEvent struct {
	SessionID   string    `json:"session_id"`
	StepIndex   int       `json:"step_index"`
	Instruction string    `json:"instruction"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RerouteFailedEvent is published when a recalculation attempt fails.
type RerouteFailedEvent struct {
	SessionID  string    `json:"session_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PositionSampleEvent is the payload of position samples on the positions
// topic. Heading and speed are optional.
type PositionSampleEvent struct {
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	AccuracyMeters float64  `json:"accuracy_meters"`
	HeadingDegrees *float64 `json:"heading_degrees,omitempty"`
	SpeedMps       *float64 `json:"speed_mps,omitempty"`
	CapturedAtMs   int64    `json:"captured_at_ms"`
}
