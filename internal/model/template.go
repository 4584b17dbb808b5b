package model

import (
	"time"

	"github.com/google/uuid"
)

// TemplateStep is one entry of a reusable treatment checklist.
type TemplateStep struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TreatmentTemplate is a reusable, ordered checklist of treatment steps,
// shared across sessions. FavoritedBy drives display ordering only.
type TreatmentTemplate struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description,omitempty"`
	Steps       []TemplateStep `json:"steps"`
	CreatedBy   uuid.UUID      `db:"created_by" json:"created_by"`
	FavoritedBy []uuid.UUID    `json:"favorited_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

type ProgressStatus string

const (
	ProgressStatusNew        ProgressStatus = "NEW"
	ProgressStatusInProgress ProgressStatus = "IN_PROGRESS"
	ProgressStatusCompleted  ProgressStatus = "COMPLETED"
)

// SessionTreatmentTemplate binds a template to one session and tracks the
// doctor's position in its checklist. Version guards read-modify-write of
// CurrentStep against concurrent dashboard tabs.
type SessionTreatmentTemplate struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	SessionID   uuid.UUID      `db:"session_id" json:"session_id"`
	TemplateID  uuid.UUID      `db:"template_id" json:"template_id"`
	Status      ProgressStatus `db:"status" json:"status"`
	CurrentStep int            `db:"current_step" json:"current_step"`
	Version     int            `db:"version" json:"-"`
	StartedAt   *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

type CreateTemplateRequest struct {
	Title       string         `json:"title" binding:"required,max=200"`
	Description string         `json:"description" binding:"max=2000"`
	Steps       []TemplateStep `json:"steps" binding:"required,min=1,dive"`
}

type UpdateTemplateRequest struct {
	Title       *string        `json:"title" binding:"omitempty,max=200"`
	Description *string        `json:"description" binding:"omitempty,max=2000"`
	Steps       []TemplateStep `json:"steps" binding:"omitempty,min=1,dive"`
}

type AssignTemplateRequest struct {
	TemplateID uuid.UUID `json:"template_id" binding:"required"`
}

type AdvanceProgressRequest struct {
	Delta int `json:"delta" binding:"required,oneof=-1 1"`
}
