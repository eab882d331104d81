package postgres

import (
	"strings"
	"testing"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one migration")
	}
	if names[0] != "migrations/001_assessments.sql" {
		t.Errorf("unexpected first migration %s", names[0])
	}

	data, err := migrationFS.ReadFile(names[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS assessments") {
		t.Error("assessments table not created by first migration")
	}
}

func TestDecodeAssessment(t *testing.T) {
	a, err := decodeAssessment([]byte(`{"id":"a1","result":{"regime":"impact","e_kt":12,"center":{"lat":1,"lon":2},"overpressure_radii_m":{"1psi":10}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "a1" || a.Result.Center.Lon != 2 {
		t.Errorf("unexpected assessment %+v", a)
	}

	if _, err := decodeAssessment([]byte(`{`)); err == nil {
		t.Error("expected decode error")
	}
}
