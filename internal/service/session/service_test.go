package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/logger"
	"github.com/medrelay/session-api/pkg/metrics"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.NotFound("session", nil)
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) List(_ context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if filters != nil && filters.Status != "" && s.Status != filters.Status {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeSessionRepo) AssignIfOpen(_ context.Context, id, doctorID uuid.UUID, to model.SessionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionStatusOpen {
		return false, nil
	}
	s.Status = to
	s.AssignedTo = &doctorID
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSessionRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to model.SessionStatus, completedAt *time.Time, note *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	if completedAt != nil {
		s.CompletedAt = completedAt
	}
	if note != nil {
		s.CompleteNote = note
	}
	s.UpdatedAt = time.Now()
	return true, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []model.StatusChangePayload
}

func (e *fakeEmitter) Emit(_ context.Context, _ string, payload interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := payload.(model.StatusChangePayload); ok {
		e.events = append(e.events, p)
	}
	return nil
}

func newTestService() (*Service, *fakeSessionRepo, *fakeEmitter) {
	repo := newFakeSessionRepo()
	emitter := &fakeEmitter{}
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	return NewService(repo, emitter, log, nil), repo, emitter
}

func medic() model.Actor  { return model.Actor{ID: uuid.New(), Role: model.RoleMedic} }
func doctor() model.Actor { return model.Actor{ID: uuid.New(), Role: model.RoleDoctor} }
func admin() model.Actor  { return model.Actor{ID: uuid.New(), Role: model.RoleAdmin} }

func TestCreateSession(t *testing.T) {
	svc, _, emitter := newTestService()
	ctx := context.Background()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-4711",
		Priority:    model.SessionPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusOpen, sess.Status)
	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.Len(t, emitter.events, 1)
	assert.Equal(t, model.SessionStatusOpen, emitter.events[0].Status)

	_, err = svc.Create(ctx, doctor(), &model.CreateSessionRequest{
		PatientCode: "RTW-4712",
		Priority:    model.SessionPriorityNormal,
	})
	assert.True(t, errors.Is(err, errors.ErrForbidden), "doctors must not open sessions")
}

func TestAssignSession(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-1", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)

	claimed, err := svc.Assign(ctx, doc, sess.ID, doc.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAssigned, claimed.Status)
	require.NotNil(t, claimed.AssignedTo)
	assert.Equal(t, doc.ID, *claimed.AssignedTo)
}

func TestAssignStartImmediately(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-2", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)

	claimed, err := svc.Assign(ctx, doc, sess.ID, doc.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, claimed.Status)
}

func TestAssignLosesRace(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	first, second := doctor(), doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-3", Priority: model.SessionPriorityHigh,
	})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, first, sess.ID, first.ID, false)
	require.NoError(t, err)

	_, err = svc.Assign(ctx, second, sess.ID, second.ID, false)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition), "second claim must lose, got %v", err)

	// The winner still holds the session.
	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *got.AssignedTo)
}

func TestAssignAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc, other := doctor(), doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-4", Priority: model.SessionPriorityLow,
	})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, doc, sess.ID, other.ID, false)
	assert.True(t, errors.Is(err, errors.ErrForbidden), "doctors claim only for themselves")

	m := medic()
	_, err = svc.Assign(ctx, m, sess.ID, m.ID, false)
	assert.True(t, errors.Is(err, errors.ErrForbidden), "medics do not claim sessions")
}

func TestTransitionLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-5", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, false)
	require.NoError(t, err)

	inProgress, err := svc.Transition(ctx, doc, sess.ID, model.SessionStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, inProgress.Status)

	done, err := svc.Transition(ctx, doc, sess.ID, model.SessionStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	// Terminal states accept nothing further.
	_, err = svc.Transition(ctx, doc, sess.ID, model.SessionStatusInProgress)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))
}

func TestTransitionRejectsBackward(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-6", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, true)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, doc, sess.ID, model.SessionStatusOpen)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition), "status never moves backward")

	_, err = svc.Transition(ctx, doc, sess.ID, model.SessionStatus("PAUSED"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestTransitionAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc, intruder := doctor(), doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-7", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, false)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, intruder, sess.ID, model.SessionStatusInProgress)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	// Admins may always drive the machine.
	_, err = svc.Transition(ctx, admin(), sess.ID, model.SessionStatusInProgress)
	assert.NoError(t, err)
}

func TestCompleteWithNote(t *testing.T) {
	svc, _, emitter := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-8", Priority: model.SessionPriorityHigh,
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, true)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, doc, sess.ID, "transported to hospital")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, done.Status)
	require.NotNil(t, done.CompleteNote)
	assert.Equal(t, "transported to hospital", *done.CompleteNote)
	assert.NotNil(t, done.CompletedAt)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, model.SessionStatusCompleted, last.Status)
}

func TestCompleteFromAssigned(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-9", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, false)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, doc, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, done.Status)
	assert.Nil(t, done.CompleteNote)
}

func TestCancel(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	m := medic()

	sess, err := svc.Create(ctx, m, &model.CreateSessionRequest{
		PatientCode: "RTW-10", Priority: model.SessionPriorityLow,
	})
	require.NoError(t, err)

	// The creating medic may cancel their still-open session.
	cancelled, err := svc.Cancel(ctx, m, sess.ID, "patient refused treatment")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CompletedAt)

	_, err = svc.Cancel(ctx, m, sess.ID, "again")
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition), "cancel is terminal")
}

func TestCreatorMayCancelAfterAssignment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	m, doc := medic(), doctor()

	sess, err := svc.Create(ctx, m, &model.CreateSessionRequest{
		PatientCode: "RTW-11", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, true)
	require.NoError(t, err)

	// The creator keeps cancel rights, but nothing else.
	_, err = svc.Transition(ctx, m, sess.ID, model.SessionStatusCompleted)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	cancelled, err := svc.Cancel(ctx, m, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCancelled, cancelled.Status)
}

func TestLifecycleCounters(t *testing.T) {
	repo := newFakeSessionRepo()
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	mtr := metrics.New("lifecycle_test")
	svc := NewService(repo, &fakeEmitter{}, log, mtr)
	ctx := context.Background()
	doc := doctor()

	sess, err := svc.Create(ctx, medic(), &model.CreateSessionRequest{
		PatientCode: "RTW-90", Priority: model.SessionPriorityNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(mtr.SessionsOpen))

	_, err = svc.Assign(ctx, doc, sess.ID, doc.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(mtr.SessionsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		mtr.SessionTransitions.WithLabelValues("OPEN", "ASSIGNED")))

	loser := doctor()
	_, err = svc.Assign(ctx, loser, sess.ID, loser.ID, false)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(mtr.AssignConflicts))

	_, err = svc.Transition(ctx, doc, sess.ID, model.SessionStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		mtr.SessionTransitions.WithLabelValues("ASSIGNED", "IN_PROGRESS")))
}
