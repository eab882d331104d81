package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// AssessmentRunner is the subset of usecases.ImpactService the activities drive.
type AssessmentRunner interface {
	Evaluate(ctx context.Context, params domain.EntryParams) (*domain.Assessment, error)
	Save(ctx context.Context, a *domain.Assessment) error
	Publish(ctx context.Context, a *domain.Assessment) error
	Delete(ctx context.Context, id string) error
}

// AssessmentActivities holds the activity implementations for AssessmentWorkflow.
type AssessmentActivities struct {
	Impact AssessmentRunner
}

// RunAssessment calls the simulation service and builds the overlay.
// Invalid parameters fail without retry.
func (a *AssessmentActivities) RunAssessment(ctx context.Context, params domain.EntryParams) (*domain.Assessment, error) {
	assessment, err := a.Impact.Evaluate(ctx, params)
	if errors.Is(err, domain.ErrInvalidInput) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// PersistAssessment stores the assessment.
func (a *AssessmentActivities) PersistAssessment(ctx context.Context, assessment *domain.Assessment) error {
	return a.Impact.Save(ctx, assessment)
}

// PublishAssessment broadcasts the assessment event.
func (a *AssessmentActivities) PublishAssessment(ctx context.Context, assessment *domain.Assessment) error {
	return a.Impact.Publish(ctx, assessment)
}

// DeleteAssessment removes a persisted assessment (saga compensation).
func (a *AssessmentActivities) DeleteAssessment(ctx context.Context, id string) error {
	if err := a.Impact.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete assessment %s: %w", id, err)
	}
	activity.GetLogger(ctx).Info("assessment deleted (saga compensation)", "assessment_id", id)
	return nil
}
