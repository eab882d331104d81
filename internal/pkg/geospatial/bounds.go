package geospatial

import (
	"github.com/golang/geo/s2"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// ValidPoint reports whether p is a finite latitude/longitude pair in range.
func ValidPoint(p domain.GeoPoint) bool {
	return s2.LatLngFromDegrees(p.Lat, p.Lon).IsValid()
}

// RingBounds returns the smallest lat/lng rectangle containing every vertex.
// For rings crossing the antimeridian MinLon is greater than MaxLon; rings
// enclosing a pole span the full longitude range.
func RingBounds(ring domain.Polygon) domain.Bounds {
	if len(ring) == 0 {
		return domain.Bounds{}
	}

	b := s2.NewRectBounder()
	for _, p := range ring {
		b.AddPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)))
	}
	r := b.RectBound()

	return domain.Bounds{
		MinLat: r.Lo().Lat.Degrees(),
		MinLon: r.Lo().Lng.Degrees(),
		MaxLat: r.Hi().Lat.Degrees(),
		MaxLon: r.Hi().Lng.Degrees(),
	}
}
