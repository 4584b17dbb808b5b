package vitals

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/vitals"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/httputil"
)

type Handler struct {
	service *vitals.Service
}

func NewHandler(service *vitals.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	v := r.Group("/sessions/:id/vitals")
	{
		v.POST("", h.RecordVital)
		v.GET("", h.ListVitals)
		v.GET("/current", h.CurrentVitals)
		v.GET("/latest/:type", h.LatestVital)
	}
}

func (h *Handler) RecordVital(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.RecordVitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sign, err := h.service.Record(c.Request.Context(), middleware.ActorFrom(c), sessionID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, sign)
}

func (h *Handler) ListVitals(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	signs, err := h.service.List(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, signs)
}

// CurrentVitals returns the latest recorded value per vital type, the
// snapshot the doctor console renders.
func (h *Handler) CurrentVitals(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	current, err := h.service.ResolveCurrent(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, current)
}

func (h *Handler) LatestVital(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	sign, err := h.service.ResolveLatest(c.Request.Context(), sessionID, model.VitalType(c.Param("type")))
	if errors.Is(err, errors.ErrNotFound) {
		// Not measured yet is a valid empty state, not a failure.
		httputil.RespondWithSuccess(c, nil)
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sign)
}
