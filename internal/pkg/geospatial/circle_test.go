package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/pkg/geospatial"
)

func maxDistance(center domain.GeoPoint, ring domain.Polygon) float64 {
	var max float64
	for _, p := range ring {
		if d := geospatial.Haversine(center.Lat, center.Lon, p.Lat, p.Lon); d > max {
			max = d
		}
	}
	return max
}

func TestBuildCircle_PointCountAndClosure(t *testing.T) {
	cases := []struct {
		name   string
		center domain.GeoPoint
		radius float64
		steps  int
	}{
		{"bengaluru", domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}, 1000, 4},
		{"origin", domain.GeoPoint{}, 500000, 128},
		{"south", domain.GeoPoint{Lat: -45, Lon: -70}, 25000, 37},
		{"antimeridian", domain.GeoPoint{Lat: 10, Lon: 179.9}, 50000, 64},
		{"minimum", domain.GeoPoint{Lat: 43.26, Lon: -2.93}, 100, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ring := geospatial.BuildCircle(tc.center, tc.radius, tc.steps)
			if len(ring) != tc.steps+1 {
				t.Fatalf("expected %d points, got %d", tc.steps+1, len(ring))
			}
			if ring[0] != ring[tc.steps] {
				t.Errorf("ring not closed: first %+v, last %+v", ring[0], ring[tc.steps])
			}
			if !ring.Closed() {
				t.Error("Closed() reported false")
			}
		})
	}
}

func TestBuildCircle_DefaultAndMinimumSteps(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.26, Lon: -2.93}

	if got := len(geospatial.BuildCircle(center, 1000, 0)); got != geospatial.DefaultCircleSteps+1 {
		t.Errorf("steps=0: expected %d points, got %d", geospatial.DefaultCircleSteps+1, got)
	}
	if got := len(geospatial.BuildCircle(center, 1000, -5)); got != geospatial.DefaultCircleSteps+1 {
		t.Errorf("steps=-5: expected %d points, got %d", geospatial.DefaultCircleSteps+1, got)
	}
	if got := len(geospatial.BuildCircle(center, 1000, 2)); got != geospatial.MinCircleSteps+1 {
		t.Errorf("steps=2: expected %d points, got %d", geospatial.MinCircleSteps+1, got)
	}
}

func TestBuildCircle_CardinalPoints(t *testing.T) {
	center := domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	ring := geospatial.BuildCircle(center, 1000, 4)

	for i, p := range ring[:4] {
		d := geospatial.Haversine(center.Lat, center.Lon, p.Lat, p.Lon)
		if math.Abs(d-1000) > 1e-3 {
			t.Errorf("point %d: expected 1000m from center, got %.6f", i, d)
		}
	}

	east, north, west, south := ring[0], ring[1], ring[2], ring[3]
	if east.Lon <= center.Lon || math.Abs(east.Lat-center.Lat) > 1e-5 {
		t.Errorf("point 0 not east of center: %+v", east)
	}
	if north.Lat <= center.Lat || math.Abs(north.Lon-center.Lon) > 1e-9 {
		t.Errorf("point 1 not north of center: %+v", north)
	}
	if west.Lon >= center.Lon || math.Abs(west.Lat-center.Lat) > 1e-5 {
		t.Errorf("point 2 not west of center: %+v", west)
	}
	if south.Lat >= center.Lat || math.Abs(south.Lon-center.Lon) > 1e-9 {
		t.Errorf("point 3 not south of center: %+v", south)
	}
}

func TestBuildCircle_EquatorFinite(t *testing.T) {
	ring := geospatial.BuildCircle(domain.GeoPoint{}, 500000, 128)
	for i, p := range ring {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
			t.Fatalf("point %d is not finite: %+v", i, p)
		}
	}
}

func TestBuildCircle_NorthPole(t *testing.T) {
	const radius = 100000.0
	center := domain.GeoPoint{Lat: 90, Lon: 0}
	ring := geospatial.BuildCircle(center, radius, 64)

	if len(ring) != 65 || ring[0] != ring[64] {
		t.Fatalf("expected closed ring of 65 points, got %d", len(ring))
	}

	wantLat := 90 - radius/geospatial.EarthRadiusMeters*180/math.Pi
	for i, p := range ring {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
			t.Fatalf("point %d is not finite: %+v", i, p)
		}
		if math.Abs(p.Lat-wantLat) > 1e-6 {
			t.Errorf("point %d: expected lat %.8f, got %.8f", i, wantLat, p.Lat)
		}
		if p.Lon < -180 || p.Lon > 180 {
			t.Errorf("point %d: lon %f out of range", i, p.Lon)
		}
	}

	// Vertices must fan out around the pole rather than collapse onto one meridian.
	seen := make(map[int]bool)
	for _, p := range ring[:64] {
		seen[int(math.Round(p.Lon))] = true
	}
	if len(seen) < 32 {
		t.Errorf("expected vertices spread over many meridians, got %d distinct", len(seen))
	}
}

func TestBuildCircle_SouthPole(t *testing.T) {
	const radius = 250000.0
	center := domain.GeoPoint{Lat: -90, Lon: 45}
	ring := geospatial.BuildCircle(center, radius, 16)

	wantLat := -90 + radius/geospatial.EarthRadiusMeters*180/math.Pi
	for i, p := range ring {
		if math.Abs(p.Lat-wantLat) > 1e-6 {
			t.Errorf("point %d: expected lat %.8f, got %.8f", i, wantLat, p.Lat)
		}
		d := geospatial.Haversine(center.Lat, center.Lon, p.Lat, p.Lon)
		if math.Abs(d-radius) > 1 {
			t.Errorf("point %d: expected %.0fm from pole, got %.3f", i, radius, d)
		}
	}
}

func TestBuildCircle_RadiusToZeroConverges(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}

	for _, radius := range []float64{1e-6, 0, -10, math.NaN()} {
		ring := geospatial.BuildCircle(center, radius, 32)
		for i, p := range ring {
			if math.Abs(p.Lat-center.Lat) > 1e-9 || math.Abs(p.Lon-center.Lon) > 1e-9 {
				t.Errorf("radius %g point %d: expected %+v, got %+v", radius, i, center, p)
			}
		}
	}
}

func TestBuildCircle_MonotonicInRadius(t *testing.T) {
	center := domain.GeoPoint{Lat: 51.5, Lon: -0.12}
	radii := []float64{10, 1000, 10000, 100000, 1000000}

	prev := 0.0
	for _, r := range radii {
		got := maxDistance(center, geospatial.BuildCircle(center, r, 128))
		if got <= prev {
			t.Errorf("radius %g: max distance %.3f did not grow past %.3f", r, got, prev)
		}
		if math.Abs(got/r-1) > 1e-6 {
			t.Errorf("radius %g: max distance %.6f not proportional", r, got)
		}
		prev = got
	}
}

func TestBuildCircle_OppositeVerticesSymmetric(t *testing.T) {
	center := domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	const steps = 64
	ring := geospatial.BuildCircle(center, 1000, steps)

	for i := 0; i < steps/2; i++ {
		a, b := ring[i], ring[i+steps/2]
		midLat := (a.Lat + b.Lat) / 2
		midLon := (a.Lon + b.Lon) / 2
		if math.Abs(midLat-center.Lat) > 1e-5 || math.Abs(midLon-center.Lon) > 1e-5 {
			t.Errorf("vertices %d/%d not symmetric about center: mid (%f, %f)", i, i+steps/2, midLat, midLon)
		}
	}
}

func TestBuildCircle_AntimeridianWraps(t *testing.T) {
	center := domain.GeoPoint{Lat: 0, Lon: 179.95}
	ring := geospatial.BuildCircle(center, 20000, 8)

	east := ring[0]
	if east.Lon > 0 {
		t.Errorf("expected eastern vertex to wrap to negative longitude, got %f", east.Lon)
	}
	d := geospatial.Haversine(center.Lat, center.Lon, east.Lat, east.Lon)
	if math.Abs(d-20000) > 1e-3 {
		t.Errorf("expected 20000m across the antimeridian, got %.6f", d)
	}
}

func TestDestination_NorthAlongMeridian(t *testing.T) {
	p := geospatial.Destination(domain.GeoPoint{Lat: 0, Lon: 10}, 0, geospatial.EarthRadiusMeters*math.Pi/4)
	if math.Abs(p.Lat-45) > 1e-9 || math.Abs(p.Lon-10) > 1e-9 {
		t.Errorf("expected (45, 10), got %+v", p)
	}
}

func TestNormalizeLon(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		180:  180,
		-180: -180,
		190:  -170,
		-190: 170,
	}
	for in, want := range cases {
		if got := geospatial.NormalizeLon(in); math.Abs(got-want) > 1e-12 {
			t.Errorf("NormalizeLon(%g) = %g, want %g", in, got, want)
		}
	}
}
