package announcements

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/internal/middleware"
	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/pagination"
	"github.com/cee-connect/backend/pkg/response"
)

const maxPageSize = 50

// CreateRequest is the body for POST /anuncios.
type CreateRequest struct {
	Title string `json:"titulo" binding:"required"`
	Body  string `json:"contenido" binding:"required"`
}

// Handler handles announcement HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an announcements handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /anuncios (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}
	caller := middleware.CurrentUser(c)
	a := &models.Announcement{Title: req.Title, Body: req.Body, CreatedBy: caller.ID}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		h.logger.Error("create announcement", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	response.Created(c, a)
}

// List handles GET /anuncios.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := pagination.Clamp(page, limit, maxPageSize)

	list, total, err := h.repo.List(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("list announcements", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	response.OK(c, gin.H{"data": list, "pagination": pagination.NewEnvelope(params, total)})
}

// Delete handles DELETE /anuncios/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Validation(c, "id de anuncio inválido")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "anuncio no encontrado", "")
			return
		}
		h.logger.Error("delete announcement", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	c.Status(http.StatusNoContent)
}
