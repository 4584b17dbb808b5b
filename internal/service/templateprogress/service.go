package templateprogress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/pkg/errors"
)

// casAttempts bounds the retry loop around the versioned progress update.
// Two dashboard tabs clicking at once settle within a retry or two.
const casAttempts = 3

// Service tracks a session's progress through an attached treatment
// template checklist: NEW -> IN_PROGRESS -> COMPLETED, with COMPLETED
// terminal. All step movement is version-guarded against lost updates.
type Service struct {
	repo         repository.ProgressRepository
	templateRepo repository.TemplateRepository
}

func NewService(repo repository.ProgressRepository, templateRepo repository.TemplateRepository) *Service {
	return &Service{repo: repo, templateRepo: templateRepo}
}

// Assign attaches a template to a session. A session holds at most one
// progress record; re-assigning over one that is IN_PROGRESS is rejected
// rather than silently resetting another doctor's position.
func (s *Service) Assign(ctx context.Context, actor model.Actor, sessionID, templateID uuid.UUID) (*model.SessionTreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors attach treatment templates")
	}

	if _, err := s.templateRepo.Get(ctx, templateID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == model.ProgressStatusInProgress {
			return nil, errors.Conflict("a template is already in progress for this session", nil)
		}
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	stt := &model.SessionTreatmentTemplate{
		SessionID:  sessionID,
		TemplateID: templateID,
		Status:     model.ProgressStatusNew,
	}
	if err := s.repo.Create(ctx, stt); err != nil {
		return nil, err
	}
	return stt, nil
}

func (s *Service) Remove(ctx context.Context, actor model.Actor, sessionID uuid.UUID) error {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return errors.Forbidden("only doctors detach treatment templates")
	}
	return s.repo.Delete(ctx, sessionID)
}

// Get returns the progress record. A NotFound error is the normal state
// for a session without an attached template.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*model.SessionTreatmentTemplate, error) {
	return s.repo.GetBySession(ctx, sessionID)
}

// Start begins working the checklist. Valid only from NEW.
func (s *Service) Start(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionTreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors progress treatment templates")
	}

	stt, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stt.Status != model.ProgressStatusNew {
		return nil, errors.InvalidTransition(
			"template progress is already "+string(stt.Status), nil)
	}

	now := time.Now()
	stt.Status = model.ProgressStatusInProgress
	stt.CurrentStep = 0
	stt.StartedAt = &now

	ok, err := s.repo.UpdateVersioned(ctx, stt, stt.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Conflict("template progress changed concurrently", nil)
	}
	return stt, nil
}

// Advance moves the current step by delta (+1 or -1) while IN_PROGRESS.
// The step clamps to [0, len(steps)-1]; pushing past either bound is a
// no-op, not an error. The versioned update retries against concurrent
// tabs so no click is lost.
func (s *Service) Advance(ctx context.Context, actor model.Actor, sessionID uuid.UUID, delta int) (*model.SessionTreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors progress treatment templates")
	}
	if delta != 1 && delta != -1 {
		return nil, errors.Validation("delta must be +1 or -1", nil)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		stt, err := s.repo.GetBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if stt.Status != model.ProgressStatusInProgress {
			return nil, errors.InvalidTransition(
				"template progress is "+string(stt.Status)+", not IN_PROGRESS", nil)
		}

		tpl, err := s.templateRepo.Get(ctx, stt.TemplateID)
		if err != nil {
			return nil, err
		}

		next := clamp(stt.CurrentStep+delta, 0, len(tpl.Steps)-1)
		if next == stt.CurrentStep {
			return stt, nil
		}
		stt.CurrentStep = next

		ok, err := s.repo.UpdateVersioned(ctx, stt, stt.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return stt, nil
		}
	}
	return nil, errors.Conflict("template progress changed concurrently", nil)
}

// Complete finishes the checklist from IN_PROGRESS. The current step does
// not have to sit on the last index already; completion forces it there so
// the record reads as finished.
func (s *Service) Complete(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionTreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors progress treatment templates")
	}

	stt, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stt.Status != model.ProgressStatusInProgress {
		return nil, errors.InvalidTransition(
			"template progress is "+string(stt.Status)+", not IN_PROGRESS", nil)
	}

	tpl, err := s.templateRepo.Get(ctx, stt.TemplateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stt.Status = model.ProgressStatusCompleted
	stt.CompletedAt = &now
	if len(tpl.Steps) > 0 {
		stt.CurrentStep = len(tpl.Steps) - 1
	}

	ok, err := s.repo.UpdateVersioned(ctx, stt, stt.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Conflict("template progress changed concurrently", nil)
	}
	return stt, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
