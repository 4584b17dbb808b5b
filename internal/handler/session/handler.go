package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/session"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/httputil"
)

type Handler struct {
	service *session.Service
}

func NewHandler(service *session.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/assign", h.AssignSession)
		sessions.POST("/:id/transition", h.TransitionSession)
		sessions.POST("/:id/complete", h.CompleteSession)
		sessions.POST("/:id/cancel", h.CancelSession)
	}
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sess, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, sess)
}

func (h *Handler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	sess, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sess)
}

func (h *Handler) ListSessions(c *gin.Context) {
	filters := &model.SessionFilters{
		Status:   model.SessionStatus(c.Query("status")),
		Priority: model.SessionPriority(c.Query("priority")),
	}

	if id := c.Query("created_by"); id != "" {
		createdBy, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.Validation("invalid created_by ID", err))
			return
		}
		filters.CreatedBy = createdBy
	}

	if id := c.Query("assigned_to"); id != "" {
		assignedTo, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.Validation("invalid assigned_to ID", err))
			return
		}
		filters.AssignedTo = assignedTo
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}
	page.Normalize()

	sessions, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	total := len(sessions)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}

	httputil.RespondWithPagination(c, sessions[start:end], page.Page, page.PageSize, total)
}

func (h *Handler) AssignSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.AssignSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sess, err := h.service.Assign(c.Request.Context(), middleware.ActorFrom(c), id, req.DoctorID, req.StartImmediately)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sess)
}

func (h *Handler) TransitionSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sess, err := h.service.Transition(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sess)
}

func (h *Handler) CompleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sess, err := h.service.Complete(c.Request.Context(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sess)
}

func (h *Handler) CancelSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	sess, err := h.service.Cancel(c.Request.Context(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, sess)
}
