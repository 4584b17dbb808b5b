package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	apperrors "github.com/medrelay/session-api/pkg/errors"
)

// templateRow mirrors the templates table; steps live in a jsonb column.
type templateRow struct {
	ID          uuid.UUID       `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Steps       json.RawMessage `db:"steps"`
	CreatedBy   uuid.UUID       `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (row *templateRow) toModel() (*model.TreatmentTemplate, error) {
	tpl := &model.TreatmentTemplate{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.Steps) > 0 {
		if err := json.Unmarshal(row.Steps, &tpl.Steps); err != nil {
			return nil, fmt.Errorf("failed to decode template steps: %w", err)
		}
	}
	return tpl, nil
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.TreatmentTemplate) error {
	steps, err := json.Marshal(tpl.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode template steps: %w", err)
	}

	query := `
		INSERT INTO treatment_templates (
			id, title, description, steps, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	tpl.ID = uuid.New()
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = tpl.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		tpl.ID,
		tpl.Title,
		tpl.Description,
		steps,
		tpl.CreatedBy,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentTemplate, error) {
	query := `
		SELECT id, title, description, steps, created_by, created_at, updated_at
		FROM treatment_templates
		WHERE id = $1
	`
	var row templateRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("treatment template", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return row.toModel()
}

func (r *templateRepository) Update(ctx context.Context, tpl *model.TreatmentTemplate) error {
	steps, err := json.Marshal(tpl.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode template steps: %w", err)
	}

	query := `
		UPDATE treatment_templates
		SET title = $1, description = $2, steps = $3, updated_at = $4
		WHERE id = $5
	`
	tpl.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, tpl.Title, tpl.Description, steps, tpl.UpdatedAt, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("treatment template", nil)
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM treatment_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("treatment template", nil)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context) ([]*model.TreatmentTemplate, error) {
	query := `
		SELECT id, title, description, steps, created_by, created_at, updated_at
		FROM treatment_templates
		ORDER BY title ASC
	`
	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]*model.TreatmentTemplate, 0, len(rows))
	for i := range rows {
		tpl, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func (r *templateRepository) Favorite(ctx context.Context, templateID, userID uuid.UUID) error {
	query := `
		INSERT INTO template_favorites (template_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (template_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, templateID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to favorite template: %w", err)
	}
	return nil
}

func (r *templateRepository) Unfavorite(ctx context.Context, templateID, userID uuid.UUID) error {
	query := `DELETE FROM template_favorites WHERE template_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, templateID, userID)
	if err != nil {
		return fmt.Errorf("failed to unfavorite template: %w", err)
	}
	return nil
}

func (r *templateRepository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT template_id FROM template_favorites WHERE user_id = $1`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}
