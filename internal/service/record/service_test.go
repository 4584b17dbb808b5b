package record

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/reconcile"
	"github.com/medrelay/session-api/pkg/errors"
)

type fakeRecordRepo struct {
	bySession map[uuid.UUID]*model.MedicalRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{bySession: make(map[uuid.UUID]*model.MedicalRecord)}
}

func (r *fakeRecordRepo) Upsert(_ context.Context, record *model.MedicalRecord) error {
	existing, ok := r.bySession[record.SessionID]
	if ok {
		record.ID = existing.ID
		record.Treatment = existing.Treatment
	} else {
		record.ID = uuid.New()
	}
	copied := *record
	r.bySession[record.SessionID] = &copied
	return nil
}

func (r *fakeRecordRepo) GetBySession(_ context.Context, sessionID uuid.UUID) (*model.MedicalRecord, error) {
	record, ok := r.bySession[sessionID]
	if !ok {
		return nil, errors.NotFound("medical record", nil)
	}
	copied := *record
	return &copied, nil
}

type fakeNoteRepo struct {
	notes []*model.Note
}

func (r *fakeNoteRepo) Create(_ context.Context, note *model.Note) error {
	note.ID = uuid.New()
	note.CreatedAt = time.Now()
	copied := *note
	r.notes = append(r.notes, &copied)
	return nil
}

func (r *fakeNoteRepo) List(_ context.Context, sessionID uuid.UUID) ([]*model.Note, error) {
	var out []*model.Note
	for _, n := range r.notes {
		if n.SessionID == sessionID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) ListByType(_ context.Context, sessionID uuid.UUID, noteType model.NoteType) ([]*model.Note, error) {
	var out []*model.Note
	for _, n := range r.notes {
		if n.SessionID == sessionID && n.Type == noteType {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func TestUpsertAndGet(t *testing.T) {
	svc := NewService(newFakeRecordRepo(), &fakeNoteRepo{})
	ctx := context.Background()
	sessionID := uuid.New()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}

	_, err := svc.Get(ctx, sessionID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	record, err := svc.Upsert(ctx, actor, sessionID, &model.UpsertMedicalRecordRequest{
		PatientHistory: json.RawMessage(`{"treatment":{"access":"PVK"}}`),
		Allergies:      "Penicillin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Penicillin", record.Allergies)

	updated, err := svc.Upsert(ctx, actor, sessionID, &model.UpsertMedicalRecordRequest{
		Allergies: "Penicillin, Latex",
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, updated.ID, "upsert keeps the same row")
	assert.Equal(t, "Penicillin, Latex", updated.Allergies)
}

func TestCreateNote(t *testing.T) {
	svc := NewService(newFakeRecordRepo(), &fakeNoteRepo{})
	ctx := context.Background()
	sessionID := uuid.New()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}

	note, err := svc.CreateNote(ctx, actor, sessionID, &model.CreateNoteRequest{
		Type: model.NoteTypeTreatment, Content: "Zugang: PVK.",
	})
	require.NoError(t, err)
	assert.Equal(t, actor.ID, note.CreatedBy)

	_, err = svc.CreateNote(ctx, actor, sessionID, &model.CreateNoteRequest{
		Type: model.NoteType("DIARY"), Content: "x",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	notes, err := svc.ListNotes(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestTreatmentHistoryWithoutAnyData(t *testing.T) {
	svc := NewService(newFakeRecordRepo(), &fakeNoteRepo{})

	// No record, no notes: the history endpoint still answers with a valid
	// empty result.
	result, err := svc.TreatmentHistory(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestTreatmentHistoryFromNotes(t *testing.T) {
	svc := NewService(newFakeRecordRepo(), &fakeNoteRepo{})
	ctx := context.Background()
	sessionID := uuid.New()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}

	_, err := svc.CreateNote(ctx, actor, sessionID, &model.CreateNoteRequest{
		Type: model.NoteTypeTreatment, Content: "Zugang: IO. Reanimation: Nein.",
	})
	require.NoError(t, err)

	result, err := svc.TreatmentHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "IO", result.Fields[reconcile.FieldAccess])
	assert.Equal(t, "Nein", result.Fields[reconcile.FieldReanimation])
}

func TestTreatmentHistoryPrefersRecord(t *testing.T) {
	svc := NewService(newFakeRecordRepo(), &fakeNoteRepo{})
	ctx := context.Background()
	sessionID := uuid.New()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}

	_, err := svc.Upsert(ctx, actor, sessionID, &model.UpsertMedicalRecordRequest{
		PatientHistory: json.RawMessage(`{"treatment":{"access":"ZVK"}}`),
	})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, actor, sessionID, &model.CreateNoteRequest{
		Type: model.NoteTypeTreatment, Content: "Zugang: PVK.",
	})
	require.NoError(t, err)

	result, err := svc.TreatmentHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "ZVK", result.Fields[reconcile.FieldAccess])
}
