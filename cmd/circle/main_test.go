package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--lat", "12.9716", "--lon", "77.5946", "--radius", "1000", "--steps", "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Steps != 4 || opts.Radius != 1000 || opts.Format != "geojson" {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParseOptions_Invalid(t *testing.T) {
	tests := [][]string{
		{"--lat", "95", "--radius", "10"},
		{"--lat", "0", "--radius", "0"},
		{"--radius", "10", "--format", "kml"},
	}
	for _, args := range tests {
		if _, err := parseOptions(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestRun_Points(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, options{Lat: 0, Lon: 0, Radius: 1000, Steps: 4, Format: "points"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[0] != lines[4] {
		t.Errorf("ring not closed: %q vs %q", lines[0], lines[4])
	}
}

func TestRun_GeoJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, options{Lat: 10, Lon: 20, Radius: 5000, Steps: 16, Format: "geojson"}); err != nil {
		t.Fatal(err)
	}

	var f struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(buf.Bytes(), &f); err != nil {
		t.Fatal(err)
	}
	if f.Type != "Feature" || f.Geometry.Type != "Polygon" || len(f.Geometry.Coordinates[0]) != 17 {
		t.Errorf("unexpected feature %+v", f)
	}
}
