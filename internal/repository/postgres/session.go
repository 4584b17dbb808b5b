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

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, patient_code, status, priority, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PatientCode,
		session.Status,
		session.Priority,
		session.CreatedBy,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, patient_code, status, priority, created_by, assigned_to,
			   complete_note, created_at, updated_at, completed_at
		FROM sessions
		WHERE id = $1
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("session", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	query := `
		SELECT id, patient_code, status, priority, created_by, assigned_to,
			   complete_note, created_at, updated_at, completed_at
		FROM sessions
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Priority != "" {
			query += fmt.Sprintf(" AND priority = $%d", argCount)
			args = append(args, filters.Priority)
			argCount++
		}
		if filters.CreatedBy != uuid.Nil {
			query += fmt.Sprintf(" AND created_by = $%d", argCount)
			args = append(args, filters.CreatedBy)
			argCount++
		}
		if filters.AssignedTo != uuid.Nil {
			query += fmt.Sprintf(" AND assigned_to = $%d", argCount)
			args = append(args, filters.AssignedTo)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// AssignIfOpen is the claim race arbiter: the WHERE clause only matches while
// the session is still OPEN, so exactly one concurrent caller wins.
func (r *sessionRepository) AssignIfOpen(ctx context.Context, id, doctorID uuid.UUID, to model.SessionStatus) (bool, error) {
	query := `
		UPDATE sessions
		SET assigned_to = $1, status = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, doctorID, to, time.Now(), id, model.SessionStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to assign session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *sessionRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to model.SessionStatus, completedAt *time.Time, note *string) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $1,
			completed_at = COALESCE($2, completed_at),
			complete_note = COALESCE($3, complete_note),
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, to, completedAt, note, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
