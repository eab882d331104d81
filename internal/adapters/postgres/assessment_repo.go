package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// AssessmentRepo implements ports.AssessmentRepository with pgx.
// The full assessment is stored as JSONB; regime, energy and center are
// denormalised for filtering.
type AssessmentRepo struct {
	db *DB
}

// NewAssessmentRepo creates a new AssessmentRepo.
func NewAssessmentRepo(db *DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// Insert stores an assessment.
func (r *AssessmentRepo) Insert(ctx context.Context, a *domain.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}

	var lat, lon float64
	if a.Result.Center != nil {
		lat, lon = a.Result.Center.Lat, a.Result.Center.Lon
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO assessments (id, regime, e_kt, lat, lon, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.Result.Regime, a.Result.EnergyKt, lat, lon, payload, a.CreatedAt)
	return err
}

// GetByID returns an assessment by UUID.
func (r *AssessmentRepo) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT payload FROM assessments WHERE id::text = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeAssessment(payload)
}

// ListRecent returns the newest assessments first.
func (r *AssessmentRepo) ListRecent(ctx context.Context, limit int) ([]domain.Assessment, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT payload FROM assessments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Assessment, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		a, err := decodeAssessment(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes an assessment. Deleting a missing row is not an error.
func (r *AssessmentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM assessments WHERE id::text = $1`, id)
	return err
}

func decodeAssessment(payload []byte) (*domain.Assessment, error) {
	var a domain.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &a, nil
}
