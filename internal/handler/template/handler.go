package template

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/service/template"
	"github.com/medrelay/session-api/internal/service/templateprogress"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/httputil"
)

type Handler struct {
	templates *template.Service
	progress  *templateprogress.Service
}

func NewHandler(templates *template.Service, progress *templateprogress.Service) *Handler {
	return &Handler{templates: templates, progress: progress}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/treatment-templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
		templates.POST("/:id/favorite", h.FavoriteTemplate)
		templates.DELETE("/:id/favorite", h.UnfavoriteTemplate)
	}

	progress := r.Group("/sessions/:id/treatment-template")
	{
		progress.PUT("", h.AssignTemplate)
		progress.GET("", h.GetProgress)
		progress.DELETE("", h.RemoveTemplate)
		progress.POST("/start", h.StartProgress)
		progress.POST("/advance", h.AdvanceProgress)
		progress.POST("/complete", h.CompleteProgress)
	}
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	tmpl, err := h.templates.Create(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, tmpl)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid template ID", err))
		return
	}

	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, tmpl)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, templates)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid template ID", err))
		return
	}

	var req model.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	tmpl, err := h.templates.Update(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, tmpl)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid template ID", err))
		return
	}

	if err := h.templates.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) FavoriteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid template ID", err))
		return
	}

	if err := h.templates.Favorite(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"favorite": true})
}

func (h *Handler) UnfavoriteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid template ID", err))
		return
	}

	if err := h.templates.Unfavorite(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"favorite": false})
}

func (h *Handler) AssignTemplate(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.AssignTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	stt, err := h.progress.Assign(c.Request.Context(), middleware.ActorFrom(c), sessionID, req.TemplateID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stt)
}

func (h *Handler) GetProgress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	stt, err := h.progress.Get(c.Request.Context(), sessionID)
	if errors.Is(err, errors.ErrNotFound) {
		// No template attached yet is the normal state of a fresh session.
		httputil.RespondWithSuccess(c, nil)
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stt)
}

func (h *Handler) RemoveTemplate(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	if err := h.progress.Remove(c.Request.Context(), middleware.ActorFrom(c), sessionID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}

func (h *Handler) StartProgress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	stt, err := h.progress.Start(c.Request.Context(), middleware.ActorFrom(c), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stt)
}

func (h *Handler) AdvanceProgress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	var req model.AdvanceProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error(), err))
		return
	}

	stt, err := h.progress.Advance(c.Request.Context(), middleware.ActorFrom(c), sessionID, req.Delta)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stt)
}

func (h *Handler) CompleteProgress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID", err))
		return
	}

	stt, err := h.progress.Complete(c.Request.Context(), middleware.ActorFrom(c), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stt)
}
