package plan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/pkg/errors"
)

// Service manages the doctor-authored treatment plan of a session. A plan
// is composed as a draft and frozen by Send; after that only the statuses
// of its steps keep moving while the field team executes it.
type Service struct {
	repo repository.PlanRepository
}

func NewService(repo repository.PlanRepository) *Service {
	return &Service{repo: repo}
}

// Get returns the session's plan. A NotFound error is the normal state for
// a session whose doctor has not authored one yet.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*model.TreatmentPlan, error) {
	return s.repo.GetBySession(ctx, sessionID)
}

// UpsertDiagnosis sets the diagnosis text, creating the draft plan on
// first write.
func (s *Service) UpsertDiagnosis(ctx context.Context, actor model.Actor, sessionID uuid.UUID, diagnosis string) (*model.TreatmentPlan, error) {
	if !actor.IsDoctor() {
		return nil, errors.Forbidden("only doctors author treatment plans")
	}

	plan, err := s.getOrCreate(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if plan.Sent() {
		return nil, errors.InvalidTransition("treatment plan has been sent and is no longer editable", nil)
	}

	if err := s.repo.UpdateDiagnosis(ctx, plan.ID, diagnosis); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

func (s *Service) AddStep(ctx context.Context, actor model.Actor, sessionID uuid.UUID, description string) (*model.TreatmentPlan, error) {
	if !actor.IsDoctor() {
		return nil, errors.Forbidden("only doctors author treatment plans")
	}
	if description == "" {
		return nil, errors.Validation("step description is required", nil)
	}

	plan, err := s.getOrCreate(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if plan.Sent() {
		return nil, errors.InvalidTransition("treatment plan has been sent and is no longer editable", nil)
	}

	step := &model.PlanStep{
		PlanID:      plan.ID,
		Description: description,
	}
	if err := s.repo.AddStep(ctx, step); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

func (s *Service) DeleteStep(ctx context.Context, actor model.Actor, sessionID, stepID uuid.UUID) error {
	if !actor.IsDoctor() {
		return errors.Forbidden("only doctors author treatment plans")
	}

	plan, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if plan.Sent() {
		return errors.InvalidTransition("treatment plan has been sent and is no longer editable", nil)
	}

	step, err := s.repo.GetStep(ctx, stepID)
	if err != nil {
		return err
	}
	if step.PlanID != plan.ID {
		return errors.NotFound("plan step", nil)
	}
	return s.repo.DeleteStep(ctx, stepID)
}

// Send releases the plan to the field team and freezes composition. A plan
// needs at least one step to be sendable.
func (s *Service) Send(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.TreatmentPlan, error) {
	if !actor.IsDoctor() {
		return nil, errors.Forbidden("only doctors send treatment plans")
	}

	plan, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if plan.Sent() {
		return nil, errors.InvalidTransition("treatment plan has already been sent", nil)
	}
	if len(plan.Steps) == 0 {
		return nil, errors.Validation("treatment plan needs at least one step before sending", nil)
	}

	if err := s.repo.MarkSent(ctx, plan.ID, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// UpdateStepStatus advances a single step. Steps carry independent
// statuses with no ordering dependency, and keep moving after Send.
func (s *Service) UpdateStepStatus(ctx context.Context, actor model.Actor, sessionID, stepID uuid.UUID, status model.PlanStepStatus) (*model.PlanStep, error) {
	if !actor.IsDoctor() && actor.Role != model.RoleMedic {
		return nil, errors.Forbidden("only clinical staff update plan steps")
	}
	if !status.IsValid() {
		return nil, errors.Validation("unknown plan step status", nil)
	}

	plan, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	step, err := s.repo.GetStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if step.PlanID != plan.ID {
		return nil, errors.NotFound("plan step", nil)
	}

	if err := s.repo.UpdateStepStatus(ctx, stepID, status); err != nil {
		return nil, err
	}
	return s.repo.GetStep(ctx, stepID)
}

func (s *Service) getOrCreate(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.TreatmentPlan, error) {
	plan, err := s.repo.GetBySession(ctx, sessionID)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	plan = &model.TreatmentPlan{
		SessionID: sessionID,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
