package moderation

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/pkg/response"
)

// MuteRequest is the body for POST /admin/usuarios/:usuarioid/silenciar.
type MuteRequest struct {
	Reason string    `json:"motivo" binding:"required"`
	EndsAt time.Time `json:"finalizaEn" binding:"required"`
}

// Handler handles moderation HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a moderation handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Mute handles POST /admin/usuarios/:usuarioid/silenciar (admin).
func (h *Handler) Mute(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}
	sanction, err := h.svc.Mute(c.Request.Context(), userID, req.Reason, req.EndsAt)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.Created(c, sanction)
}

// Unmute handles DELETE /admin/usuarios/:usuarioid/silenciar (admin).
func (h *Handler) Unmute(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.svc.Unmute(c.Request.Context(), userID); err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"usuarioId": userID, "silenciado": false})
}

// GetStatus handles GET /admin/usuarios/:usuarioid/silencio (admin).
func (h *Handler) GetStatus(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	status, err := h.svc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, status)
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("usuarioid"))
	if err != nil {
		response.Validation(c, "id de usuario inválido")
		return uuid.Nil, false
	}
	return id, true
}
