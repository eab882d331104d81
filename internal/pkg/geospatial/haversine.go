package geospatial

import (
	"math"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// EarthRadiusMeters is the spherical Earth radius shared by every function in
// this package (WGS 84 equatorial radius).
const EarthRadiusMeters = 6378137.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Perimeter returns the great-circle length of a ring in meters.
func Perimeter(ring domain.Polygon) float64 {
	var total float64
	for i := 1; i < len(ring); i++ {
		total += Haversine(ring[i-1].Lat, ring[i-1].Lon, ring[i].Lat, ring[i].Lon)
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
