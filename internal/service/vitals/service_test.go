package vitals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/metrics"
)

type fakeVitalRepo struct {
	vitals []*model.VitalSign
}

func (r *fakeVitalRepo) Append(_ context.Context, v *model.VitalSign) error {
	v.ID = uuid.New()
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now()
	}
	copied := *v
	r.vitals = append(r.vitals, &copied)
	return nil
}

func (r *fakeVitalRepo) List(_ context.Context, sessionID uuid.UUID) ([]*model.VitalSign, error) {
	var out []*model.VitalSign
	for _, v := range r.vitals {
		if v.SessionID == sessionID {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeVitalRepo) Latest(_ context.Context, sessionID uuid.UUID, vitalType model.VitalType) (*model.VitalSign, error) {
	var best *model.VitalSign
	for _, v := range r.vitals {
		if v.SessionID != sessionID || v.Type != vitalType {
			continue
		}
		if best == nil || v.RecordedAt.After(best.RecordedAt) {
			best = v
		}
	}
	if best == nil {
		return nil, errors.NotFound("vital sign", nil)
	}
	copied := *best
	return &copied, nil
}

// append inserts directly, bypassing Record, so tests control RecordedAt.
func (r *fakeVitalRepo) append(sessionID uuid.UUID, vitalType model.VitalType, value string, at time.Time) {
	r.vitals = append(r.vitals, &model.VitalSign{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Type:       vitalType,
		Value:      value,
		RecordedAt: at,
	})
}

func TestRecordVital(t *testing.T) {
	repo := &fakeVitalRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}
	sessionID := uuid.New()

	v, err := svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalHeartRate, Value: " 92 ", Unit: "bpm",
	})
	require.NoError(t, err)
	assert.Equal(t, "92", v.Value, "value is stored trimmed")
	assert.Equal(t, actor.ID, v.RecordedBy)

	// Bounded sentinels are valid numeric payloads.
	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalRespiratoryRate, Value: "<20",
	})
	assert.NoError(t, err)

	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalHeartRate, Value: "fast",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalType("SHOE_SIZE"), Value: "44",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRecordPainLevel(t *testing.T) {
	svc := NewService(&fakeVitalRepo{}, nil)
	ctx := context.Background()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}
	sessionID := uuid.New()

	_, err := svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalPainLevel, Value: "7",
	})
	assert.NoError(t, err)

	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalPainLevel, Value: "11",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalPainLevel, Value: "7.5",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRecordConsciousness(t *testing.T) {
	svc := NewService(&fakeVitalRepo{}, nil)
	ctx := context.Background()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}
	sessionID := uuid.New()

	_, err := svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalConsciousness, Value: "alert",
	})
	assert.NoError(t, err, "levels match case-insensitively")

	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalConsciousness, Value: "SLEEPY",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestResolveLatestPicksMaxTimestamp(t *testing.T) {
	repo := &fakeVitalRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()
	sessionID := uuid.New()
	now := time.Now()

	// Rows arrive out of order; the newest timestamp wins regardless.
	repo.append(sessionID, model.VitalHeartRate, "88", now.Add(-time.Minute))
	repo.append(sessionID, model.VitalHeartRate, "104", now)
	repo.append(sessionID, model.VitalHeartRate, "95", now.Add(-30*time.Second))

	latest, err := svc.ResolveLatest(ctx, sessionID, model.VitalHeartRate)
	require.NoError(t, err)
	assert.Equal(t, "104", latest.Value)
}

func TestResolveLatestNotMeasured(t *testing.T) {
	svc := NewService(&fakeVitalRepo{}, nil)

	_, err := svc.ResolveLatest(context.Background(), uuid.New(), model.VitalTemperature)
	assert.True(t, errors.Is(err, errors.ErrNotFound), "unmeasured type is NotFound, not empty value")
}

func TestResolveCurrent(t *testing.T) {
	repo := &fakeVitalRepo{}
	svc := NewService(repo, nil)
	sessionID := uuid.New()
	now := time.Now()

	repo.append(sessionID, model.VitalHeartRate, "80", now.Add(-2*time.Minute))
	repo.append(sessionID, model.VitalHeartRate, "90", now)
	repo.append(sessionID, model.VitalBloodPressure, "120/80", now.Add(-time.Minute))
	repo.append(uuid.New(), model.VitalHeartRate, "120", now)

	current, err := svc.ResolveCurrent(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "90", current[model.VitalHeartRate].Value)
	assert.Equal(t, "120/80", current[model.VitalBloodPressure].Value)
}

func TestRecordVitalCounter(t *testing.T) {
	repo := &fakeVitalRepo{}
	mtr := metrics.New("vitals_test")
	svc := NewService(repo, mtr)
	ctx := context.Background()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleMedic}
	sessionID := uuid.New()

	_, err := svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalHeartRate, Value: "88", Unit: "bpm",
	})
	require.NoError(t, err)
	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalHeartRate, Value: "91", Unit: "bpm",
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		mtr.VitalsRecorded.WithLabelValues("HEART_RATE")))

	// Rejected values must not count.
	_, err = svc.Record(ctx, actor, sessionID, &model.RecordVitalRequest{
		Type: model.VitalHeartRate, Value: "fast",
	})
	require.Error(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(
		mtr.VitalsRecorded.WithLabelValues("HEART_RATE")))
}
