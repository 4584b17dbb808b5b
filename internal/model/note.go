package model

import (
	"time"

	"github.com/google/uuid"
)

type NoteType string

const (
	NoteTypeTreatment            NoteType = "TREATMENT"
	NoteTypeTreatmentDescription NoteType = "TREATMENT_DESCRIPTION"
	NoteTypeGeneral              NoteType = "GENERAL"
)

func (t NoteType) IsValid() bool {
	switch t {
	case NoteTypeTreatment, NoteTypeTreatmentDescription, NoteTypeGeneral:
		return true
	}
	return false
}

// Note is a free-text annotation on a session. TREATMENT notes double as a
// reconciliation fallback source for treatment history.
type Note struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	Type      NoteType  `db:"type" json:"type"`
	Title     string    `db:"title" json:"title,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateNoteRequest struct {
	Type    NoteType `json:"type" binding:"required,notetype"`
	Title   string   `json:"title" binding:"max=200"`
	Content string   `json:"content" binding:"required,max=8000"`
}
