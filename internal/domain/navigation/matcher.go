package navigation

import (
	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// Match locates a position relative to a route's polyline.
type Match struct {
	// DistanceToRouteMeters is the perpendicular distance from the position
	// to the nearest point on the polyline.
	DistanceToRouteMeters float64
	// DistanceAlongRouteMeters is the along-path distance traveled, measured
	// from the route start to that nearest point.
	DistanceAlongRouteMeters float64
	// SegmentIndex is the polyline segment the position matched.
	SegmentIndex int
}

// MatchPosition map-matches a position against the route polyline. Thin
// wrapper over the geometry kernel's nearest-point scan.
func MatchPosition(pos Position, r *route.Route) Match {
	nearest := geo.NearestPointOnPolyline(pos.Coordinate, r.Polyline)
	return Match{
		DistanceToRouteMeters:    nearest.DistanceMeters,
		DistanceAlongRouteMeters: nearest.DistanceAlongMeters,
		SegmentIndex:             nearest.SegmentIndex,
	}
}

// DistanceToManeuver returns the great-circle distance from the position to
// the step's maneuver anchor.
func DistanceToManeuver(pos Position, step route.Step) float64 {
	return geo.Distance(pos.Coordinate, step.Anchor)
}
