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

func (r *progressRepository) Create(ctx context.Context, stt *model.SessionTreatmentTemplate) error {
	query := `
		INSERT INTO session_treatment_templates (
			id, session_id, template_id, status, current_step, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	stt.ID = uuid.New()
	stt.Version = 1
	stt.CreatedAt = time.Now()
	stt.UpdatedAt = stt.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		stt.ID,
		stt.SessionID,
		stt.TemplateID,
		stt.Status,
		stt.CurrentStep,
		stt.Version,
		stt.CreatedAt,
		stt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session template progress: %w", err)
	}
	return nil
}

func (r *progressRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.SessionTreatmentTemplate, error) {
	query := `
		SELECT id, session_id, template_id, status, current_step, version,
			   started_at, completed_at, created_at, updated_at
		FROM session_treatment_templates
		WHERE session_id = $1
	`
	var stt model.SessionTreatmentTemplate
	err := r.db.GetContext(ctx, &stt, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("session template progress", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session template progress: %w", err)
	}
	return &stt, nil
}

func (r *progressRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM session_treatment_templates WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session template progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("session template progress", nil)
	}
	return nil
}

// UpdateVersioned is the optimistic write guarding the progress
// read-modify-write: the row only matches while version is unchanged.
func (r *progressRepository) UpdateVersioned(ctx context.Context, stt *model.SessionTreatmentTemplate, expectedVersion int) (bool, error) {
	query := `
		UPDATE session_treatment_templates
		SET status = $1, current_step = $2, started_at = $3, completed_at = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	stt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		stt.Status,
		stt.CurrentStep,
		stt.StartedAt,
		stt.CompletedAt,
		stt.UpdatedAt,
		stt.ID,
		expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session template progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		stt.Version = expectedVersion + 1
	}
	return rows > 0, nil
}
