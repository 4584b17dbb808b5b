package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/internal/service/reconcile"
	"github.com/medrelay/session-api/pkg/errors"
)

// Service handles the session's medical record and notes and exposes the
// reconciled treatment history view built from both.
type Service struct {
	recordRepo repository.MedicalRecordRepository
	noteRepo   repository.NoteRepository
}

func NewService(recordRepo repository.MedicalRecordRepository, noteRepo repository.NoteRepository) *Service {
	return &Service{recordRepo: recordRepo, noteRepo: noteRepo}
}

func (s *Service) Upsert(ctx context.Context, actor model.Actor, sessionID uuid.UUID, req *model.UpsertMedicalRecordRequest) (*model.MedicalRecord, error) {
	record := &model.MedicalRecord{
		SessionID:          sessionID,
		PatientHistory:     req.PatientHistory,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
	}
	if err := s.recordRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return s.recordRepo.GetBySession(ctx, sessionID)
}

// Get returns the session's medical record; NotFound is the normal state
// before the first upsert.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*model.MedicalRecord, error) {
	return s.recordRepo.GetBySession(ctx, sessionID)
}

func (s *Service) CreateNote(ctx context.Context, actor model.Actor, sessionID uuid.UUID, req *model.CreateNoteRequest) (*model.Note, error) {
	if !req.Type.IsValid() {
		return nil, errors.Validation("unknown note type", nil)
	}

	note := &model.Note{
		SessionID: sessionID,
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: actor.ID,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListNotes(ctx context.Context, sessionID uuid.UUID) ([]*model.Note, error) {
	return s.noteRepo.List(ctx, sessionID)
}

// TreatmentHistory runs the reconciler over whatever record and notes the
// session has. Missing inputs are normal; the reconciler itself never
// fails, so the only errors here are storage errors.
func (s *Service) TreatmentHistory(ctx context.Context, sessionID uuid.UUID) (reconcile.Result, error) {
	record, err := s.recordRepo.GetBySession(ctx, sessionID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return reconcile.Result{}, err
	}

	notes, err := s.noteRepo.ListByType(ctx, sessionID, model.NoteTypeTreatment)
	if err != nil {
		return reconcile.Result{}, err
	}

	return reconcile.Reconcile(record, notes), nil
}
