package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
)

// All repository interfaces in one file
type (
	// SessionRepository persists sessions. The conditional methods implement
	// atomic check-and-set so status can never move through a stale read.
	SessionRepository interface {
		Create(ctx context.Context, session *model.Session) error
		Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
		List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error)
		// AssignIfOpen claims the session for doctorID in one conditional
		// update. Returns false when the session was not in OPEN anymore.
		AssignIfOpen(ctx context.Context, id, doctorID uuid.UUID, to model.SessionStatus) (bool, error)
		// UpdateStatusIf moves status from->to in one conditional update and
		// reports whether the row matched.
		UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to model.SessionStatus, completedAt *time.Time, note *string) (bool, error)
	}

	VitalSignRepository interface {
		// Append inserts a new row. Vitals are never updated or deleted.
		Append(ctx context.Context, vital *model.VitalSign) error
		List(ctx context.Context, sessionID uuid.UUID) ([]*model.VitalSign, error)
		// Latest returns the row with maximal recorded_at for the pair, or
		// a NotFound error when nothing was measured yet.
		Latest(ctx context.Context, sessionID uuid.UUID, vitalType model.VitalType) (*model.VitalSign, error)
	}

	MedicalRecordRepository interface {
		Upsert(ctx context.Context, record *model.MedicalRecord) error
		GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.MedicalRecord, error)
	}

	TemplateRepository interface {
		Create(ctx context.Context, tpl *model.TreatmentTemplate) error
		Get(ctx context.Context, id uuid.UUID) (*model.TreatmentTemplate, error)
		Update(ctx context.Context, tpl *model.TreatmentTemplate) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.TreatmentTemplate, error)
		Favorite(ctx context.Context, templateID, userID uuid.UUID) error
		Unfavorite(ctx context.Context, templateID, userID uuid.UUID) error
		ListFavorites(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	}

	ProgressRepository interface {
		Create(ctx context.Context, stt *model.SessionTreatmentTemplate) error
		GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.SessionTreatmentTemplate, error)
		Delete(ctx context.Context, sessionID uuid.UUID) error
		// UpdateVersioned writes status/current_step guarded by the version
		// column and reports whether the expected version still matched.
		UpdateVersioned(ctx context.Context, stt *model.SessionTreatmentTemplate, expectedVersion int) (bool, error)
	}

	PlanRepository interface {
		Create(ctx context.Context, plan *model.TreatmentPlan) error
		GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TreatmentPlan, error)
		UpdateDiagnosis(ctx context.Context, planID uuid.UUID, diagnosis string) error
		MarkSent(ctx context.Context, planID uuid.UUID, sentAt time.Time) error
		AddStep(ctx context.Context, step *model.PlanStep) error
		GetStep(ctx context.Context, stepID uuid.UUID) (*model.PlanStep, error)
		DeleteStep(ctx context.Context, stepID uuid.UUID) error
		UpdateStepStatus(ctx context.Context, stepID uuid.UUID, status model.PlanStepStatus) error
	}

	NoteRepository interface {
		Create(ctx context.Context, note *model.Note) error
		List(ctx context.Context, sessionID uuid.UUID) ([]*model.Note, error)
		ListByType(ctx context.Context, sessionID uuid.UUID, noteType model.NoteType) ([]*model.Note, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
