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

func (r *medicalRecordRepository) Upsert(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, session_id, patient_history, allergies, current_medications,
			treatment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			patient_history = EXCLUDED.patient_history,
			allergies = EXCLUDED.allergies,
			current_medications = EXCLUDED.current_medications,
			updated_at = EXCLUDED.updated_at
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.SessionID,
		record.PatientHistory,
		record.Allergies,
		record.CurrentMedications,
		record.Treatment,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.MedicalRecord, error) {
	query := `
		SELECT id, session_id, patient_history, allergies, current_medications,
			   treatment, created_at, updated_at
		FROM medical_records
		WHERE session_id = $1
	`
	var record model.MedicalRecord
	err := r.db.GetContext(ctx, &record, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("medical record", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}
