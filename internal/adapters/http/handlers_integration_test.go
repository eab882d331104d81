//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "github.com/samirrijal/meteorguard/internal/adapters/http"
	"github.com/samirrijal/meteorguard/internal/adapters/postgres"
	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
	"github.com/samirrijal/meteorguard/internal/pkg/config"
)

// setupTestDB connects to the test database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("meteorguard-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(ctx, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// setupTestDeps wires a real repository behind a mocked upstream.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	client := &mockClient{}
	repo := postgres.NewAssessmentRepo(db)
	return &handler.Dependencies{
		Impact:   usecases.NewImpactService(client, usecases.NewOverlayBuilder(nil, 32), repo, nil, nil, 0),
		NEO:      usecases.NewNEOService(client, nil, 0),
		Upstream: client,
		DB:       db,
	}
}

// TestAssessments_Integration_WithRealDB runs a simulation and reads it back.
func TestAssessments_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))

	req := httptest.NewRequest("POST", "/v1/simulate",
		strings.NewReader(`{"diameter_m":120,"velocity_kms":19,"angle_deg":60,"lat":43.26,"lon":-2.93}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created domain.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = postgres.NewAssessmentRepo(db).Delete(context.Background(), created.ID)
	}()

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/assessments/"+created.ID, nil), -1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fetched domain.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatal(err)
	}
	if fetched.ID != created.ID || len(fetched.Zones) != len(created.Zones) {
		t.Errorf("round trip mismatch: %+v vs %+v", fetched.ID, created.ID)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/assessments?limit=5", nil), -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var page struct {
		Data []domain.Assessment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range page.Data {
		if a.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("assessment %s missing from recent list", created.ID)
	}
}

// TestReady_Integration_WithRealDB checks readiness against a live database.
func TestReady_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatal(err)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", body.Checks["database"])
	}
}
