package ports

import (
	"context"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// AssessmentRepository persists completed impact assessments.
type AssessmentRepository interface {
	Insert(ctx context.Context, a *domain.Assessment) error
	GetByID(ctx context.Context, id string) (*domain.Assessment, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Assessment, error)
	Delete(ctx context.Context, id string) error
}
