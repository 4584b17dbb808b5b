package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	apperrors "github.com/medrelay/session-api/pkg/errors"
)

func (r *planRepository) Create(ctx context.Context, plan *model.TreatmentPlan) error {
	query := `
		INSERT INTO treatment_plans (
			id, session_id, diagnosis, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	plan.ID = uuid.New()
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.SessionID,
		plan.Diagnosis,
		plan.CreatedBy,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return nil
}

func (r *planRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TreatmentPlan, error) {
	query := `
		SELECT id, session_id, diagnosis, created_by, sent_at, created_at, updated_at
		FROM treatment_plans
		WHERE session_id = $1
	`
	var plan model.TreatmentPlan
	err := r.db.GetContext(ctx, &plan, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("treatment plan", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}

	stepsQuery := `
		SELECT id, plan_id, position, description, status, created_at, updated_at
		FROM treatment_plan_steps
		WHERE plan_id = $1
		ORDER BY position ASC
	`
	if err := r.db.SelectContext(ctx, &plan.Steps, stepsQuery, plan.ID); err != nil {
		return nil, fmt.Errorf("failed to get treatment plan steps: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) UpdateDiagnosis(ctx context.Context, planID uuid.UUID, diagnosis string) error {
	query := `UPDATE treatment_plans SET diagnosis = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, diagnosis, time.Now(), planID)
	if err != nil {
		return fmt.Errorf("failed to update diagnosis: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("treatment plan", nil)
	}
	return nil
}

// MarkSent freezes plan composition. The sent_at guard makes a double send
// a no-match rather than a lost update.
func (r *planRepository) MarkSent(ctx context.Context, planID uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE treatment_plans
		SET sent_at = $1, updated_at = $1
		WHERE id = $2 AND sent_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, sentAt, planID)
	if err != nil {
		return fmt.Errorf("failed to mark plan sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.InvalidTransition("treatment plan already sent", nil)
	}
	return nil
}

func (r *planRepository) AddStep(ctx context.Context, step *model.PlanStep) error {
	query := `
		INSERT INTO treatment_plan_steps (
			id, plan_id, position, description, status, created_at, updated_at
		)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1, $3, $4, $5, $5
		FROM treatment_plan_steps
		WHERE plan_id = $2
	`
	step.ID = uuid.New()
	step.Status = model.PlanStepPending
	step.CreatedAt = time.Now()
	step.UpdatedAt = step.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		step.ID,
		step.PlanID,
		step.Description,
		step.Status,
		step.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add plan step: %w", err)
	}
	return nil
}

func (r *planRepository) GetStep(ctx context.Context, stepID uuid.UUID) (*model.PlanStep, error) {
	query := `
		SELECT id, plan_id, position, description, status, created_at, updated_at
		FROM treatment_plan_steps
		WHERE id = $1
	`
	var step model.PlanStep
	err := r.db.GetContext(ctx, &step, query, stepID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("plan step", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan step: %w", err)
	}
	return &step, nil
}

func (r *planRepository) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM treatment_plan_steps WHERE id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("failed to delete plan step: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("plan step", nil)
	}
	return nil
}

func (r *planRepository) UpdateStepStatus(ctx context.Context, stepID uuid.UUID, status model.PlanStepStatus) error {
	query := `UPDATE treatment_plan_steps SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), stepID)
	if err != nil {
		return fmt.Errorf("failed to update plan step status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("plan step", nil)
	}
	return nil
}
