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

func (r *vitalSignRepository) Append(ctx context.Context, vital *model.VitalSign) error {
	query := `
		INSERT INTO vital_signs (
			id, session_id, type, value, unit, recorded_by, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	vital.ID = uuid.New()
	if vital.RecordedAt.IsZero() {
		vital.RecordedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		vital.ID,
		vital.SessionID,
		vital.Type,
		vital.Value,
		vital.Unit,
		vital.RecordedBy,
		vital.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append vital sign: %w", err)
	}
	return nil
}

func (r *vitalSignRepository) List(ctx context.Context, sessionID uuid.UUID) ([]*model.VitalSign, error) {
	query := `
		SELECT id, session_id, type, value, unit, recorded_by, recorded_at
		FROM vital_signs
		WHERE session_id = $1
		ORDER BY recorded_at DESC
	`
	var vitals []*model.VitalSign
	err := r.db.SelectContext(ctx, &vitals, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return vitals, nil
}

// Latest selects strictly by max recorded_at; id breaks ties so concurrent
// writers with equal timestamps still resolve deterministically.
func (r *vitalSignRepository) Latest(ctx context.Context, sessionID uuid.UUID, vitalType model.VitalType) (*model.VitalSign, error) {
	query := `
		SELECT id, session_id, type, value, unit, recorded_by, recorded_at
		FROM vital_signs
		WHERE session_id = $1 AND type = $2
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	var vital model.VitalSign
	err := r.db.GetContext(ctx, &vital, query, sessionID, vitalType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("vital sign", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest vital sign: %w", err)
	}
	return &vital, nil
}
