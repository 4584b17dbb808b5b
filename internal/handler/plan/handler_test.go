package plan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/plan"
	"github.com/medrelay/session-api/pkg/errors"
)

type fakePlanRepo struct {
	plan *model.TreatmentPlan
}

func (f *fakePlanRepo) Create(ctx context.Context, p *model.TreatmentPlan) error { return nil }

func (f *fakePlanRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TreatmentPlan, error) {
	if f.plan == nil || f.plan.SessionID != sessionID {
		return nil, errors.NotFound("treatment plan", nil)
	}
	return f.plan, nil
}

func (f *fakePlanRepo) UpdateDiagnosis(ctx context.Context, planID uuid.UUID, diagnosis string) error {
	return nil
}

func (f *fakePlanRepo) MarkSent(ctx context.Context, planID uuid.UUID, sentAt time.Time) error {
	return nil
}

func (f *fakePlanRepo) AddStep(ctx context.Context, step *model.PlanStep) error { return nil }

func (f *fakePlanRepo) GetStep(ctx context.Context, stepID uuid.UUID) (*model.PlanStep, error) {
	return nil, errors.NotFound("plan step", nil)
}

func (f *fakePlanRepo) DeleteStep(ctx context.Context, stepID uuid.UUID) error { return nil }

func (f *fakePlanRepo) UpdateStepStatus(ctx context.Context, stepID uuid.UUID, status model.PlanStepStatus) error {
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func newTestRouter(repo *fakePlanRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(plan.NewService(repo)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGetPlanEmptyForNewSession(t *testing.T) {
	r := newTestRouter(&fakePlanRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/treatment-plan", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Empty(t, body.Data)
	assert.Empty(t, body.Error)
}

func TestGetPlanReturnsExisting(t *testing.T) {
	sessionID := uuid.New()
	r := newTestRouter(&fakePlanRepo{plan: &model.TreatmentPlan{
		ID:        uuid.New(),
		SessionID: sessionID,
		Diagnosis: "suspected stroke",
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String()+"/treatment-plan", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Contains(t, string(body.Data), "suspected stroke")
}

func TestGetPlanRejectsBadSessionID(t *testing.T) {
	r := newTestRouter(&fakePlanRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/not-a-uuid/treatment-plan", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
