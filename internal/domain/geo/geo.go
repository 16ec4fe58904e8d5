package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for all spherical math.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180.0

// Coordinate is an immutable latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsValid reports whether the coordinate lies within the valid lat/lng range.
func (c Coordinate) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Distance returns the great-circle distance between a and b in meters.
// It is symmetric, non-negative, and zero for identical coordinates.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * EarthRadiusMeters
}

// Bearing returns the initial bearing from a to b in degrees, normalized to [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	deg := math.Atan2(y, x) / degToRad
	return math.Mod(deg+360, 360)
}

// DistanceToSegment returns the distance in meters from point to the segment
// [segStart, segEnd], measured to the foot of the perpendicular clamped to the
// segment. The math is planar in a locally-linearized coordinate space, which
// is accurate at road-network scales. Zero-length segments degrade to a
// point-to-point distance.
func DistanceToSegment(point, segStart, segEnd Coordinate) float64 {
	_, dist := projectOntoSegment(point, segStart, segEnd)
	return dist
}

// PolylinePoint describes the nearest location on a polyline relative to a
// query point.
type PolylinePoint struct {
	// SegmentIndex is the index of the polyline segment containing the
	// nearest point (segment i spans vertices i and i+1).
	SegmentIndex int
	// DistanceMeters is the perpendicular (or endpoint) distance from the
	// query point to the polyline.
	DistanceMeters float64
	// DistanceAlongMeters is the distance from the polyline start to the
	// nearest point, following the polyline.
	DistanceAlongMeters float64
}

// NearestPointOnPolyline scans every segment of the polyline and returns the
// minimum-distance projection. O(n) per call, which is fine at the scale of a
// single active route driven by position-update frequency.
//
// Degenerate polylines never panic: an empty polyline yields the zero value
// and a single-vertex polyline yields the distance to that vertex.
func NearestPointOnPolyline(point Coordinate, polyline []Coordinate) PolylinePoint {
	if len(polyline) == 0 {
		return PolylinePoint{}
	}
	if len(polyline) == 1 {
		return PolylinePoint{DistanceMeters: Distance(point, polyline[0])}
	}

	best := PolylinePoint{DistanceMeters: math.Inf(1)}
	cumulative := 0.0

	for i := 0; i < len(polyline)-1; i++ {
		segLen := Distance(polyline[i], polyline[i+1])
		t, dist := projectOntoSegment(point, polyline[i], polyline[i+1])
		if dist < best.DistanceMeters {
			best = PolylinePoint{
				SegmentIndex:        i,
				DistanceMeters:      dist,
				DistanceAlongMeters: cumulative + t*segLen,
			}
		}
		cumulative += segLen
	}

	return best
}

// PolylineLength returns the total length of the polyline in meters.
func PolylineLength(polyline []Coordinate) float64 {
	total := 0.0
	for i := 0; i < len(polyline)-1; i++ {
		total += Distance(polyline[i], polyline[i+1])
	}
	return total
}

// projectOntoSegment projects point onto [a, b] in a plane locally linearized
// around a. It returns the clamped projection parameter t in [0, 1] and the
// distance from point to the projected location in meters.
func projectOntoSegment(point, a, b Coordinate) (t, dist float64) {
	px, py := planar(a, point)
	bx, by := planar(a, b)

	segSq := bx*bx + by*by
	if segSq == 0 {
		// Zero-length segment.
		return 0, math.Hypot(px, py)
	}

	t = (px*bx + py*by) / segSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return t, math.Hypot(px-t*bx, py-t*by)
}

// planar converts p to meters in an equirectangular plane centered on origin.
func planar(origin, p Coordinate) (x, y float64) {
	x = (p.Lng - origin.Lng) * degToRad * EarthRadiusMeters * math.Cos(origin.Lat*degToRad)
	y = (p.Lat - origin.Lat) * degToRad * EarthRadiusMeters
	return x, y
}
