package suggestions

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

// CreateRequest is the body for POST /sugerencias.
type CreateRequest struct {
	Body string `json:"contenido" binding:"required"`
}

// Handler handles suggestion HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a suggestions handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /sugerencias. The mute gate runs before this.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}
	caller := middleware.CurrentUser(c)
	s := &models.Suggestion{UserID: caller.ID, Body: req.Body}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create suggestion", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	s.Author = caller.Name
	response.Created(c, s)
}

// List handles GET /sugerencias (admin).
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := pagination.Clamp(page, limit, maxPageSize)

	list, total, err := h.repo.List(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("list suggestions", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	if list == nil {
		list = []models.Suggestion{}
	}
	response.OK(c, gin.H{"data": list, "pagination": pagination.NewEnvelope(params, total)})
}

// Delete handles DELETE /sugerencias/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Validation(c, "id de sugerencia inválido")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "sugerencia no encontrada", "")
			return
		}
		h.logger.Error("delete suggestion", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	c.Status(http.StatusNoContent)
}
