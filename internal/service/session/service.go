package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/logger"
	"github.com/medrelay/session-api/pkg/metrics"
)

// Emitter publishes lifecycle events. Delivery is at-most-once; a failed
// emit never fails the transition that triggered it.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Service owns the session status state machine:
// OPEN -> ASSIGNED -> IN_PROGRESS -> COMPLETED, CANCELLED from any
// non-terminal state. Every move is a conditional update in the repository
// so concurrent callers cannot act on stale status.
type Service struct {
	repo    repository.SessionRepository
	emitter Emitter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewService wires the lifecycle service. A nil metrics handle disables
// instrumentation.
func NewService(repo repository.SessionRepository, emitter Emitter, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		logger:  logger,
		metrics: m,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateSessionRequest) (*model.Session, error) {
	if actor.Role != model.RoleMedic && !actor.IsAdmin() {
		return nil, errors.Forbidden("only medics create sessions")
	}
	if !req.Priority.IsValid() {
		return nil, errors.Validation("invalid priority", nil)
	}
	if req.PatientCode == "" {
		return nil, errors.Validation("patient code is required", nil)
	}

	session := &model.Session{
		PatientCode: req.PatientCode,
		Status:      model.SessionStatusOpen,
		Priority:    req.Priority,
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionsOpen.Inc()
	}

	s.emitStatusChange(ctx, session.ID, session.Status, actor.ID)
	return session, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	return s.repo.List(ctx, filters)
}

// Assign claims an OPEN session for a doctor. The conditional update in the
// repository arbitrates concurrent claims; the loser gets an invalid state
// transition, not a silent overwrite. startImmediately follows the caller
// convention of jumping straight to IN_PROGRESS on claim.
func (s *Service) Assign(ctx context.Context, actor model.Actor, sessionID, doctorID uuid.UUID, startImmediately bool) (*model.Session, error) {
	if !actor.IsDoctor() {
		return nil, errors.Forbidden("only doctors claim sessions")
	}
	if doctorID != actor.ID {
		return nil, errors.Forbidden("doctors claim sessions for themselves")
	}

	target := model.SessionStatusAssigned
	if startImmediately {
		target = model.SessionStatusInProgress
	}

	ok, err := s.repo.AssignIfOpen(ctx, sessionID, doctorID, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Either the session does not exist or someone else already holds it.
		session, getErr := s.repo.Get(ctx, sessionID)
		if getErr != nil {
			return nil, getErr
		}
		if s.metrics != nil {
			s.metrics.AssignConflicts.Inc()
		}
		return nil, errors.InvalidTransition(
			"session is no longer open (status "+string(session.Status)+")", nil)
	}

	s.observeTransition(model.SessionStatusOpen, target)
	s.emitStatusChange(ctx, sessionID, target, actor.ID)
	return s.repo.Get(ctx, sessionID)
}

// Transition performs a generic forward-only status move.
func (s *Service) Transition(ctx context.Context, actor model.Actor, sessionID uuid.UUID, newStatus model.SessionStatus) (*model.Session, error) {
	if !newStatus.IsValid() {
		return nil, errors.Validation("unknown session status", nil)
	}

	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTransition(actor, session, newStatus); err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, errors.InvalidTransition(
			"session is already "+string(session.Status), nil)
	}
	if !session.Status.CanTransitionTo(newStatus) {
		return nil, errors.InvalidTransition(
			string(session.Status)+" -> "+string(newStatus)+" is not a lawful transition", nil)
	}

	var completedAt *time.Time
	if newStatus == model.SessionStatusCompleted {
		now := time.Now()
		completedAt = &now
	}

	ok, err := s.repo.UpdateStatusIf(ctx, sessionID, session.Status, newStatus, completedAt, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidTransition("session status changed concurrently", nil)
	}

	s.observeTransition(session.Status, newStatus)
	s.emitStatusChange(ctx, sessionID, newStatus, actor.ID)
	return s.repo.Get(ctx, sessionID)
}

// Complete closes a session from IN_PROGRESS; ASSIGNED is tolerated for
// doctors who close without formally starting.
func (s *Service) Complete(ctx context.Context, actor model.Actor, sessionID uuid.UUID, reason string) (*model.Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTransition(actor, session, model.SessionStatusCompleted); err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress && session.Status != model.SessionStatusAssigned {
		return nil, errors.InvalidTransition(
			"cannot complete a session in status "+string(session.Status), nil)
	}

	now := time.Now()
	var note *string
	if reason != "" {
		note = &reason
	}

	ok, err := s.repo.UpdateStatusIf(ctx, sessionID, session.Status, model.SessionStatusCompleted, &now, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidTransition("session status changed concurrently", nil)
	}

	s.observeTransition(session.Status, model.SessionStatusCompleted)
	s.emitStatusChange(ctx, sessionID, model.SessionStatusCompleted, actor.ID)
	return s.repo.Get(ctx, sessionID)
}

// Cancel aborts a session from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, sessionID uuid.UUID, reason string) (*model.Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTransition(actor, session, model.SessionStatusCancelled); err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, errors.InvalidTransition(
			"session is already "+string(session.Status), nil)
	}

	var note *string
	if reason != "" {
		note = &reason
	}

	ok, err := s.repo.UpdateStatusIf(ctx, sessionID, session.Status, model.SessionStatusCancelled, nil, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidTransition("session status changed concurrently", nil)
	}

	s.observeTransition(session.Status, model.SessionStatusCancelled)
	s.emitStatusChange(ctx, sessionID, model.SessionStatusCancelled, actor.ID)
	return s.repo.Get(ctx, sessionID)
}

// authorizeTransition enforces who may drive the machine: the assigned
// doctor once claimed, the creating medic before that (cancel only), and
// admins always.
func (s *Service) authorizeTransition(actor model.Actor, session *model.Session, target model.SessionStatus) error {
	if actor.IsAdmin() {
		return nil
	}
	if session.AssignedTo != nil {
		if actor.ID == *session.AssignedTo {
			return nil
		}
		if target == model.SessionStatusCancelled && actor.ID == session.CreatedBy {
			return nil
		}
		return errors.Forbidden("session is assigned to another doctor")
	}
	if actor.ID == session.CreatedBy {
		return nil
	}
	return errors.Forbidden("session belongs to another medic")
}

// observeTransition records a successful status move. Leaving OPEN, by any
// route, shrinks the unclaimed pool.
func (s *Service) observeTransition(from, to model.SessionStatus) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionTransitions.WithLabelValues(string(from), string(to)).Inc()
	if from == model.SessionStatusOpen {
		s.metrics.SessionsOpen.Dec()
	}
}

func (s *Service) emitStatusChange(ctx context.Context, sessionID uuid.UUID, status model.SessionStatus, actorID uuid.UUID) {
	payload := model.StatusChangePayload{
		SessionID:  sessionID,
		Status:     status,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}
	if err := s.emitter.Emit(ctx, model.EventStatusChange, payload); err != nil {
		s.logger.Error(err, "failed to emit status change",
			"session_id", sessionID.String(), "status", string(status))
	}
}
