package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Composition is the bulk material class of an impactor.
type Composition string

const (
	CompositionStony    Composition = "stony"
	CompositionIron     Composition = "iron"
	CompositionCometary Composition = "cometary"
)

// Default entry parameters applied when the caller leaves them unset.
const (
	DefaultDensityKgM3 = 3000.0
	DefaultComposition = CompositionStony
)

// EntryParams describes an atmospheric entry scenario sent to the simulation endpoint.
type EntryParams struct {
	DiameterM   float64     `json:"diameter_m"`
	DensityKgM3 float64     `json:"density_kg_m3"`
	VelocityKmS float64     `json:"velocity_kms"`
	AngleDeg    float64     `json:"angle_deg"`
	Composition Composition `json:"composition"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
}

// WithDefaults fills density and composition when they are zero-valued.
func (p EntryParams) WithDefaults() EntryParams {
	if p.DensityKgM3 == 0 {
		p.DensityKgM3 = DefaultDensityKgM3
	}
	if p.Composition == "" {
		p.Composition = DefaultComposition
	}
	return p
}

// Validate checks the physical ranges accepted by the simulation endpoint.
func (p EntryParams) Validate() error {
	var errs []string

	if !(p.DiameterM > 1) || math.IsInf(p.DiameterM, 0) {
		errs = append(errs, fmt.Sprintf("diameter_m must be > 1, got %g", p.DiameterM))
	}
	if !(p.DensityKgM3 > 100) || math.IsInf(p.DensityKgM3, 0) {
		errs = append(errs, fmt.Sprintf("density_kg_m3 must be > 100, got %g", p.DensityKgM3))
	}
	if !(p.VelocityKmS > 1) || math.IsInf(p.VelocityKmS, 0) {
		errs = append(errs, fmt.Sprintf("velocity_kms must be > 1, got %g", p.VelocityKmS))
	}
	if !(p.AngleDeg > 5 && p.AngleDeg < 90) {
		errs = append(errs, fmt.Sprintf("angle_deg must be between 5 and 90 (exclusive), got %g", p.AngleDeg))
	}
	switch p.Composition {
	case CompositionStony, CompositionIron, CompositionCometary:
	default:
		errs = append(errs, fmt.Sprintf("composition must be stony, iron or cometary, got %q", p.Composition))
	}
	if !(p.Lat >= -90 && p.Lat <= 90) {
		errs = append(errs, fmt.Sprintf("lat must be within [-90, 90], got %g", p.Lat))
	}
	if !(p.Lon >= -180 && p.Lon <= 180) {
		errs = append(errs, fmt.Sprintf("lon must be within [-180, 180], got %g", p.Lon))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}

// Regime values reported by the simulation endpoint.
const (
	RegimeAirburst = "airburst"
	RegimeImpact   = "impact"
)

// Overpressure threshold keys returned in SimulationResult.OverpressureRadiiM.
const (
	Threshold1psi = "1psi"
	Threshold5psi = "5psi"
)

// SimulationResult is the typed body of a /simulate response.
type SimulationResult struct {
	Regime             string             `json:"regime"`
	EnergyKt           float64            `json:"e_kt"`
	Center             *GeoPoint          `json:"center"`
	OverpressureRadiiM map[string]float64 `json:"overpressure_radii_m"`
}

// Validate checks that every field the overlay depends on is present and finite.
// required lists the overpressure keys that must carry a positive radius.
func (r *SimulationResult) Validate(required []string) error {
	var errs []string

	if r.Center == nil {
		errs = append(errs, "center is missing")
	} else {
		if math.IsNaN(r.Center.Lat) || r.Center.Lat < -90 || r.Center.Lat > 90 {
			errs = append(errs, fmt.Sprintf("center.lat out of range: %g", r.Center.Lat))
		}
		if math.IsNaN(r.Center.Lon) || r.Center.Lon < -180 || r.Center.Lon > 180 {
			errs = append(errs, fmt.Sprintf("center.lon out of range: %g", r.Center.Lon))
		}
	}
	if strings.TrimSpace(r.Regime) == "" {
		errs = append(errs, "regime is missing")
	}
	if math.IsNaN(r.EnergyKt) || math.IsInf(r.EnergyKt, 0) || r.EnergyKt < 0 {
		errs = append(errs, fmt.Sprintf("e_kt must be a finite non-negative number, got %g", r.EnergyKt))
	}
	for _, key := range required {
		radius, ok := r.OverpressureRadiiM[key]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("overpressure_radii_m[%q] is missing", key))
		case math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0:
			errs = append(errs, fmt.Sprintf("overpressure_radii_m[%q] must be a positive finite number, got %g", key, radius))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(errs, "; "))
	}
	return nil
}

// Default and maximum page size for NEO searches.
const (
	DefaultNEOSearchLimit = 20
	MaxNEOSearchLimit     = 100
)

// NEOSearchQuery is the body of a /neo/search request.
type NEOSearchQuery struct {
	PHA   bool `json:"pha"`
	Limit int  `json:"limit"`
}

// Validate applies the default limit and rejects out-of-range values.
func (q *NEOSearchQuery) Validate() error {
	if q.Limit == 0 {
		q.Limit = DefaultNEOSearchLimit
	}
	if q.Limit < 1 || q.Limit > MaxNEOSearchLimit {
		return fmt.Errorf("%w: limit must be 1-%d, got %d", ErrInvalidInput, MaxNEOSearchLimit, q.Limit)
	}
	return nil
}

// NEO is a near-earth object row returned by the search endpoint.
type NEO struct {
	Des      string   `json:"des"`
	Name     string   `json:"name,omitempty"`
	SPKID    string   `json:"spkid,omitempty"`
	Diameter *float64 `json:"diameter,omitempty"`
	Albedo   *float64 `json:"albedo,omitempty"`
	PHA      string   `json:"pha,omitempty"`
}

// Hazardous reports whether the catalogue flags the object as a PHA.
func (n NEO) Hazardous() bool {
	return strings.EqualFold(n.PHA, "y")
}

// RGBA is a color with alpha, 0-255 per channel.
type RGBA [4]int

// OverlayZone is a single blast-radius ring ready for rendering.
type OverlayZone struct {
	Threshold string  `json:"threshold"`
	RadiusM   float64 `json:"radius_m"`
	Ring      Polygon `json:"ring"`
	Stroke    RGBA    `json:"stroke"`
	Fill      RGBA    `json:"fill"`
}

// Assessment is a persisted simulation run together with its rendered overlay.
type Assessment struct {
	ID        string           `json:"id"`
	Params    EntryParams      `json:"params"`
	Result    SimulationResult `json:"result"`
	Zones     []OverlayZone    `json:"zones"`
	Overlay   json.RawMessage  `json:"overlay,omitempty"`
	Bounds    *Bounds          `json:"bounds,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// AssessmentEvent is broadcast after an assessment completes.
type AssessmentEvent struct {
	AssessmentID string             `json:"assessment_id"`
	Regime       string             `json:"regime"`
	EnergyKt     float64            `json:"e_kt"`
	Center       GeoPoint           `json:"center"`
	RadiiM       map[string]float64 `json:"radii_m"`
	CreatedAt    time.Time          `json:"created_at"`
}
