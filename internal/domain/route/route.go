package route

import (
	"errors"
	"fmt"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
)

// ErrInvalidRoute indicates a malformed provider payload. It is fatal to
// starting navigation: no partial route is ever returned alongside it.
var ErrInvalidRoute = errors.New("invalid route")

// ManeuverKind classifies the maneuver a step instructs.
type ManeuverKind string

const (
	ManeuverDepart     ManeuverKind = "depart"
	ManeuverTurn       ManeuverKind = "turn"
	ManeuverContinue   ManeuverKind = "continue"
	ManeuverMerge      ManeuverKind = "merge"
	ManeuverFork       ManeuverKind = "fork"
	ManeuverRoundabout ManeuverKind = "roundabout"
	ManeuverArrive     ManeuverKind = "arrive"
)

// Step is a single navigation instruction. Steps are ordered: index 0 is the
// departure, the last step is the arrival. Anchor is the maneuver anchor: the
// geographic point at which the step's instruction logically occurs, i.e. the
// end of the step's travel distance.
type Step struct {
	Instruction             string         `json:"instruction"`
	Maneuver                ManeuverKind   `json:"maneuver"`
	Modifier                string         `json:"modifier,omitempty"`
	StreetName              string         `json:"street_name"`
	DistanceMeters          float64        `json:"distance_meters"`
	DurationSeconds         float64        `json:"duration_seconds"`
	DistanceFromStartMeters float64        `json:"distance_from_start_meters"`
	Anchor                  geo.Coordinate `json:"anchor"`
}

// Route is the normalized route shape consumed by the navigation core.
// Invariants: Polyline has at least 2 points; Steps is non-empty; the last
// step is the arrival step with DistanceMeters == 0; DistanceFromStartMeters
// is the prefix sum of all prior steps' distances.
type Route struct {
	TotalDistanceMeters  float64          `json:"total_distance_meters"`
	TotalDurationSeconds float64          `json:"total_duration_seconds"`
	Polyline             []geo.Coordinate `json:"polyline"`
	Steps                []Step           `json:"steps"`
}

// Destination returns the geographic end of the route.
func (r *Route) Destination() geo.Coordinate {
	return r.Polyline[len(r.Polyline)-1]
}

// ProviderStep is a provider-shaped step before normalization.
type ProviderStep struct {
	Instruction     string
	Maneuver        string
	Modifier        string
	StreetName      string
	DistanceMeters  float64
	DurationSeconds float64
	Anchor          geo.Coordinate
}

// ProviderRoute is the raw payload a route provider hands to Build. Provider
// clients map their wire formats onto this shape; nothing downstream of Build
// ever sees provider-specific data.
type ProviderRoute struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []geo.Coordinate
	Steps           []ProviderStep
}

// Build normalizes a provider payload into a Route, running a prefix sum over
// step distances to derive each step's offset from the route start. It fails
// with ErrInvalidRoute when the payload has too few coordinates or no steps.
func Build(payload ProviderRoute) (*Route, error) {
	if len(payload.Geometry) < 2 {
		return nil, fmt.Errorf("%w: polyline must have at least 2 points, got %d", ErrInvalidRoute, len(payload.Geometry))
	}
	if len(payload.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps in provider payload", ErrInvalidRoute)
	}
	for _, c := range payload.Geometry {
		if !c.IsValid() {
			return nil, fmt.Errorf("%w: polyline contains out-of-range coordinate", ErrInvalidRoute)
		}
	}

	steps := make([]Step, 0, len(payload.Steps)+1)
	offset := 0.0
	for _, ps := range payload.Steps {
		if ps.DistanceMeters < 0 {
			return nil, fmt.Errorf("%w: negative step distance %.2f", ErrInvalidRoute, ps.DistanceMeters)
		}
		steps = append(steps, Step{
			Instruction:             ps.Instruction,
			Maneuver:                ManeuverKind(ps.Maneuver),
			Modifier:                ps.Modifier,
			StreetName:              ps.StreetName,
			DistanceMeters:          ps.DistanceMeters,
			DurationSeconds:         ps.DurationSeconds,
			DistanceFromStartMeters: offset,
			Anchor:                  ps.Anchor,
		})
		offset += ps.DistanceMeters
	}

	// Some providers omit an explicit arrival step. Append one so the last
	// entry is always a zero-distance arrival anchored at the destination.
	if last := steps[len(steps)-1]; last.DistanceMeters != 0 {
		steps = append(steps, Step{
			Instruction:             "You have arrived at your destination",
			Maneuver:                ManeuverArrive,
			DistanceMeters:          0,
			DistanceFromStartMeters: offset,
			Anchor:                  payload.Geometry[len(payload.Geometry)-1],
		})
	}

	total := payload.DistanceMeters
	if total <= 0 {
		total = offset
	}
	duration := payload.DurationSeconds
	if duration <= 0 {
		for _, s := range steps {
			duration += s.DurationSeconds
		}
	}

	return &Route{
		TotalDistanceMeters:  total,
		TotalDurationSeconds: duration,
		Polyline:             payload.Geometry,
		Steps:                steps,
	}, nil
}
