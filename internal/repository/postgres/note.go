package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
)

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO notes (
			id, session_id, type, title, content, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	note.ID = uuid.New()
	note.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.SessionID,
		note.Type,
		note.Title,
		note.Content,
		note.CreatedBy,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) List(ctx context.Context, sessionID uuid.UUID) ([]*model.Note, error) {
	query := `
		SELECT id, session_id, type, title, content, created_by, created_at
		FROM notes
		WHERE session_id = $1
		ORDER BY created_at DESC
	`
	var notes []*model.Note
	if err := r.db.SelectContext(ctx, &notes, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) ListByType(ctx context.Context, sessionID uuid.UUID, noteType model.NoteType) ([]*model.Note, error) {
	query := `
		SELECT id, session_id, type, title, content, created_by, created_at
		FROM notes
		WHERE session_id = $1 AND type = $2
		ORDER BY created_at DESC
	`
	var notes []*model.Note
	if err := r.db.SelectContext(ctx, &notes, query, sessionID, noteType); err != nil {
		return nil, fmt.Errorf("failed to list notes by type: %w", err)
	}
	return notes, nil
}
