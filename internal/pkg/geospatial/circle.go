package geospatial

import (
	"math"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

const (
	// DefaultCircleSteps is the number of edges used when the caller passes steps <= 0.
	DefaultCircleSteps = 128
	// MinCircleSteps is the smallest edge count that still encloses an area.
	MinCircleSteps = 3

	// Below this |cos(lat)| the start point is treated as a pole.
	poleEpsilon = 1e-12
)

// BuildCircle approximates the locus of points radiusMeters away from center
// with a closed ring of steps+1 points (the first point is repeated last).
//
// Vertex i sits at angle θ = 2πi/steps measured counter-clockwise from east,
// so vertex 0 is due east of center and vertex steps/4 due north. Each vertex
// is the spherical direct-geodesic destination from center, so the ring stays
// well defined at the poles and across the antimeridian.
//
// A non-positive radius yields a degenerate ring with every vertex at center.
func BuildCircle(center domain.GeoPoint, radiusMeters float64, steps int) domain.Polygon {
	steps = normalizeSteps(steps)

	ring := make(domain.Polygon, 0, steps+1)
	delta := radiusMeters / EarthRadiusMeters
	for i := 0; i < steps; i++ {
		if !(radiusMeters > 0) {
			ring = append(ring, center)
			continue
		}
		theta := float64(i) / float64(steps) * 2 * math.Pi
		ring = append(ring, destination(center, math.Pi/2-theta, delta))
	}
	ring = append(ring, ring[0])

	return ring
}

// Destination returns the point reached by travelling distanceMeters along a
// great circle from `from` with the given initial bearing (degrees clockwise
// from north).
func Destination(from domain.GeoPoint, bearingDeg, distanceMeters float64) domain.GeoPoint {
	return destination(from, toRad(bearingDeg), distanceMeters/EarthRadiusMeters)
}

func destination(from domain.GeoPoint, bearing, delta float64) domain.GeoPoint {
	phi1 := toRad(from.Lat)
	lambda1 := toRad(from.Lon)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	sinDelta, cosDelta := math.Sincos(delta)
	sinBearing, cosBearing := math.Sincos(bearing)

	sinPhi2 := sinPhi1*cosDelta + cosPhi1*sinDelta*cosBearing
	sinPhi2 = math.Max(-1, math.Min(1, sinPhi2))
	phi2 := math.Asin(sinPhi2)

	var lambda2 float64
	switch {
	case math.Abs(cosPhi1) < poleEpsilon && phi1 > 0:
		// Every direction points south; the bearing is taken relative to
		// the meridian of from.Lon.
		lambda2 = lambda1 + math.Pi - bearing
	case math.Abs(cosPhi1) < poleEpsilon:
		lambda2 = lambda1 + bearing
	default:
		lambda2 = lambda1 + math.Atan2(sinBearing*sinDelta*cosPhi1, cosDelta-sinPhi1*sinPhi2)
	}

	return domain.GeoPoint{Lat: toDeg(phi2), Lon: NormalizeLon(toDeg(lambda2))}
}

// NormalizeLon wraps a longitude into [-180, 180].
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	return math.Remainder(lon, 360)
}

func normalizeSteps(steps int) int {
	switch {
	case steps <= 0:
		return DefaultCircleSteps
	case steps < MinCircleSteps:
		return MinCircleSteps
	default:
		return steps
	}
}
