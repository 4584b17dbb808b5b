package record

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/record"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/httputil"
)

type Handler struct {
	service *record.Service
}

func NewHandler(service *record.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/sessions/:id")
	{
		records.PUT("/medical-record", h.UpsertRecord)
		records.GET("/medical-record", h.GetRecord)
		records.GET("/treatment-history", h.TreatmentHistory)
		records.POST("/notes", h.CreateNote)
		records.GET("/notes", h.ListNotes)
	}
}

func (h *Handler) UpsertRecord(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.UpsertMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	rec, err := h.service.Upsert(c.Request.Context(), middleware.ActorFrom(c), sessionID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, rec)
}

func (h *Handler) GetRecord(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	rec, err := h.service.Get(c.Request.Context(), sessionID)
	if errors.Is(err, errors.ErrNotFound) {
		// No record yet is the normal state of a fresh session.
		httputil.RespondWithSuccess(c, nil)
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, rec)
}

// TreatmentHistory returns the reconciled view of prior treatment drawn
// from the medical record and treatment notes. It always succeeds; an
// empty result means no source had usable data.
func (h *Handler) TreatmentHistory(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	result, err := h.service.TreatmentHistory(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) CreateNote(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	note, err := h.service.CreateNote(c.Request.Context(), middleware.ActorFrom(c), sessionID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, note)
}

func (h *Handler) ListNotes(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	notes, err := h.service.ListNotes(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notes)
}
