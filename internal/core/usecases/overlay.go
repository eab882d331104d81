package usecases

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/pkg/geospatial"
	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
)

// OverlayThreshold styles the ring drawn for one overpressure key.
type OverlayThreshold struct {
	Key    string
	Stroke domain.RGBA
	Fill   domain.RGBA
}

var knownThresholds = map[string]OverlayThreshold{
	domain.Threshold1psi: {Key: domain.Threshold1psi, Stroke: domain.RGBA{255, 0, 0, 180}, Fill: domain.RGBA{255, 0, 0, 50}},
	domain.Threshold5psi: {Key: domain.Threshold5psi, Stroke: domain.RGBA{255, 165, 0, 180}, Fill: domain.RGBA{255, 165, 0, 50}},
}

// fallback palette for keys without a fixed style
var extraPalette = []domain.RGBA{
	{128, 0, 128, 180},
	{0, 0, 255, 180},
	{0, 128, 128, 180},
}

// DefaultThresholds returns the 1 psi and 5 psi styles.
func DefaultThresholds() []OverlayThreshold {
	return ThresholdsFromKeys([]string{domain.Threshold1psi, domain.Threshold5psi})
}

// ThresholdsFromKeys maps configured overpressure keys to ring styles.
func ThresholdsFromKeys(keys []string) []OverlayThreshold {
	out := make([]OverlayThreshold, 0, len(keys))
	extra := 0
	for _, k := range keys {
		if t, ok := knownThresholds[k]; ok {
			out = append(out, t)
			continue
		}
		stroke := extraPalette[extra%len(extraPalette)]
		fill := stroke
		fill[3] = 50
		out = append(out, OverlayThreshold{Key: k, Stroke: stroke, Fill: fill})
		extra++
	}
	return out
}

// OverlayBuilder turns overpressure radii into geodesic rings.
type OverlayBuilder struct {
	thresholds []OverlayThreshold
	steps      int
}

// NewOverlayBuilder creates an OverlayBuilder. steps <= 0 selects the default ring resolution.
func NewOverlayBuilder(thresholds []OverlayThreshold, steps int) *OverlayBuilder {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds()
	}
	if steps <= 0 {
		steps = geospatial.DefaultCircleSteps
	}
	return &OverlayBuilder{thresholds: thresholds, steps: steps}
}

// Keys returns the overpressure keys every result must carry.
func (b *OverlayBuilder) Keys() []string {
	keys := make([]string, len(b.thresholds))
	for i, t := range b.thresholds {
		keys[i] = t.Key
	}
	return keys
}

// Build returns one zone per threshold, largest radius first so that inner
// rings render on top.
func (b *OverlayBuilder) Build(res *domain.SimulationResult) ([]domain.OverlayZone, error) {
	if res == nil || res.Center == nil {
		return nil, fmt.Errorf("%w: simulation result has no center", domain.ErrMalformedResponse)
	}
	start := time.Now()

	zones := make([]domain.OverlayZone, 0, len(b.thresholds))
	for _, t := range b.thresholds {
		radius, ok := res.OverpressureRadiiM[t.Key]
		if !ok {
			return nil, fmt.Errorf("%w: no radius for %q", domain.ErrMalformedResponse, t.Key)
		}
		zones = append(zones, domain.OverlayZone{
			Threshold: t.Key,
			RadiusM:   radius,
			Ring:      geospatial.BuildCircle(*res.Center, radius, b.steps),
			Stroke:    t.Stroke,
			Fill:      t.Fill,
		})
	}
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].RadiusM > zones[j].RadiusM })

	metrics.OverlayBuildDuration.Observe(time.Since(start).Seconds())
	return zones, nil
}

// FeatureCollection renders zones as GeoJSON polygons in draw order.
func FeatureCollection(zones []domain.OverlayZone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		fc.Append(geospatial.Feature(z.Ring, map[string]any{
			"threshold": z.Threshold,
			"radius_m":  z.RadiusM,
			"stroke":    z.Stroke,
			"fill":      z.Fill,
		}))
	}
	return fc
}

// OverlayBounds returns the bounds of the outermost ring, or nil without zones.
func OverlayBounds(zones []domain.OverlayZone) *domain.Bounds {
	if len(zones) == 0 {
		return nil
	}
	b := geospatial.RingBounds(zones[0].Ring)
	return &b
}
