package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// ToOrb converts a ring into an orb polygon ([lon, lat] order).
func ToOrb(ring domain.Polygon) orb.Polygon {
	r := make(orb.Ring, len(ring))
	for i, p := range ring {
		r[i] = orb.Point{p.Lon, p.Lat}
	}
	return orb.Polygon{r}
}

// Feature wraps a ring in a GeoJSON Polygon feature with the given properties.
func Feature(ring domain.Polygon, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(ToOrb(ring))
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}
