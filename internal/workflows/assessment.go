package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// AssessmentInput is the input for AssessmentWorkflow.
type AssessmentInput struct {
	Scenario string             `json:"scenario"`
	Params   domain.EntryParams `json:"params"`
}

// AssessmentOutput summarises a completed assessment.
type AssessmentOutput struct {
	Scenario     string  `json:"scenario"`
	AssessmentID string  `json:"assessment_id"`
	Regime       string  `json:"regime"`
	EnergyKt     float64 `json:"e_kt"`
}

// AssessmentWorkflow runs a simulation, persists the result and publishes it.
// If publishing fails the persisted assessment is deleted (saga compensation).
func AssessmentWorkflow(ctx workflow.Context, input AssessmentInput) (*AssessmentOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting assessment workflow", "scenario", input.Scenario)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Simulate and build the overlay
	var assessment domain.Assessment
	if err := workflow.ExecuteActivity(ctx, "RunAssessment", input.Params).Get(ctx, &assessment); err != nil {
		return nil, err
	}

	// Step 2: Persist
	if err := workflow.ExecuteActivity(ctx, "PersistAssessment", &assessment).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 3: Publish
	if err := workflow.ExecuteActivity(ctx, "PublishAssessment", &assessment).Get(ctx, nil); err != nil {
		logger.Warn("publish failed, compensating", "assessment_id", assessment.ID, "error", err)
		// Compensate: delete the persisted assessment
		_ = workflow.ExecuteActivity(ctx, "DeleteAssessment", assessment.ID).Get(ctx, nil)
		return nil, err
	}

	logger.Info("Assessment completed", "assessment_id", assessment.ID, "regime", assessment.Result.Regime)
	return &AssessmentOutput{
		Scenario:     input.Scenario,
		AssessmentID: assessment.ID,
		Regime:       assessment.Result.Regime,
		EnergyKt:     assessment.Result.EnergyKt,
	}, nil
}
