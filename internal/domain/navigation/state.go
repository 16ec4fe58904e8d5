package navigation

import "fmt"

// State represents where a navigation session is in its lifecycle.
type State string

const (
	// StateIdle is the initial state: a route is confirmed but no valid
	// position has activated guidance yet.
	StateIdle State = "idle"
	// StateNavigating means the traveler is on the route and being guided.
	StateNavigating State = "navigating"
	// StateOffRoute means sustained deviation from the route polyline.
	StateOffRoute State = "off_route"
	// StateArrived is terminal: the traveler reached the destination.
	StateArrived State = "arrived"
)

// validTransitions defines the state machine for navigation sessions.
// Stopping a session is modeled as discarding it, not as a transition.
var validTransitions = map[State][]State{
	StateIdle:       {StateNavigating},
	StateNavigating: {StateOffRoute, StateArrived},
	StateOffRoute:   {StateNavigating, StateArrived},
	StateArrived:    {},
}

// IsValid returns true if the state is a recognized session state.
func (s State) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target is allowed.
func (s State) CanTransitionTo(target State) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this state.
func (s State) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// InvalidStateError reports an illegal session state transition.
type InvalidStateError struct {
	From State
	To   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
