package plan

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/plan"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/httputil"
)

type Handler struct {
	service *plan.Service
}

func NewHandler(service *plan.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/sessions/:id/treatment-plan")
	{
		plans.GET("", h.GetPlan)
		plans.PUT("/diagnosis", h.UpsertDiagnosis)
		plans.POST("/steps", h.AddStep)
		plans.DELETE("/steps/:stepID", h.DeleteStep)
		plans.PUT("/steps/:stepID/status", h.UpdateStepStatus)
		plans.POST("/send", h.SendPlan)
	}
}

func (h *Handler) GetPlan(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	p, err := h.service.Get(c.Request.Context(), sessionID)
	if errors.Is(err, errors.ErrNotFound) {
		// No plan yet is the normal state of a fresh session.
		httputil.RespondWithSuccess(c, nil)
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpsertDiagnosis(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.UpsertDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	p, err := h.service.UpsertDiagnosis(c.Request.Context(), middleware.ActorFrom(c), sessionID, req.Diagnosis)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) AddStep(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.AddPlanStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	p, err := h.service.AddStep(c.Request.Context(), middleware.ActorFrom(c), sessionID, req.Description)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, p)
}

func (h *Handler) DeleteStep(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	stepID, err := uuid.Parse(c.Param("stepID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid step ID", err))
		return
	}

	if err := h.service.DeleteStep(c.Request.Context(), middleware.ActorFrom(c), sessionID, stepID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) UpdateStepStatus(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	stepID, err := uuid.Parse(c.Param("stepID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid step ID", err))
		return
	}

	var req model.UpdatePlanStepStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	step, err := h.service.UpdateStepStatus(c.Request.Context(), middleware.ActorFrom(c), sessionID, stepID, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, step)
}

func (h *Handler) SendPlan(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	p, err := h.service.Send(c.Request.Context(), middleware.ActorFrom(c), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, p)
}
