// Command circle prints a geodesic circle as GeoJSON or as a point list.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/pkg/geospatial"
)

type options struct {
	Lat    float64
	Lon    float64
	Radius float64
	Steps  int
	Format string
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("circle: %v", err)
	}
	if err := run(os.Stdout, opts); err != nil {
		log.Fatalf("circle: %v", err)
	}
}

// parseOptions reads flags, falling back to METEORGUARD_CIRCLE_* env vars.
func parseOptions(args []string) (options, error) {
	fs := pflag.NewFlagSet("circle", pflag.ContinueOnError)
	fs.Float64("lat", 0, "center latitude in degrees")
	fs.Float64("lon", 0, "center longitude in degrees")
	fs.Float64("radius", 0, "radius in meters")
	fs.Int("steps", geospatial.DefaultCircleSteps, "number of ring edges")
	fs.String("format", "geojson", "output format: geojson or points")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("METEORGUARD_CIRCLE")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, err
	}

	opts := options{
		Lat:    v.GetFloat64("lat"),
		Lon:    v.GetFloat64("lon"),
		Radius: v.GetFloat64("radius"),
		Steps:  v.GetInt("steps"),
		Format: strings.ToLower(v.GetString("format")),
	}

	if !geospatial.ValidPoint(domain.GeoPoint{Lat: opts.Lat, Lon: opts.Lon}) {
		return opts, fmt.Errorf("center (%g, %g) out of range", opts.Lat, opts.Lon)
	}
	if opts.Radius <= 0 {
		return opts, fmt.Errorf("--radius must be positive")
	}
	if opts.Format != "geojson" && opts.Format != "points" {
		return opts, fmt.Errorf("unknown format %q", opts.Format)
	}
	return opts, nil
}

func run(w io.Writer, opts options) error {
	ring := geospatial.BuildCircle(domain.GeoPoint{Lat: opts.Lat, Lon: opts.Lon}, opts.Radius, opts.Steps)

	if opts.Format == "points" {
		for _, p := range ring {
			if _, err := fmt.Fprintf(w, "%.8f,%.8f\n", p.Lat, p.Lon); err != nil {
				return err
			}
		}
		return nil
	}

	f := geospatial.Feature(ring, map[string]any{
		"radius_m":    opts.Radius,
		"steps":       len(ring) - 1,
		"perimeter_m": geospatial.Perimeter(ring),
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}
