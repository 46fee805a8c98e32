// Package users exposes super-admin user administration.
package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/pkg/response"
)

// Handler handles super-admin user endpoints.
type Handler struct {
	repo   *auth.Repository
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *auth.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ToggleRole handles PATCH /superadmin/usuarios/:usuarioid/cambiar
// (super-admin only). It switches the target between the admin and
// estudiante roles. A super-admin's role can never be modified.
func (h *Handler) ToggleRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("usuarioid"))
	if err != nil {
		response.Validation(c, "id de usuario inválido")
		return
	}
	ctx := c.Request.Context()

	target, err := h.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "usuario no encontrado", "")
			return
		}
		h.logger.Error("user lookup", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	if target.Role.IsSuperAdmin {
		response.Error(c, http.StatusForbidden, "no se puede modificar el rol de un superadministrador", "")
		return
	}

	nextRoleName := "admin"
	if target.Role.IsAdmin {
		nextRoleName = "estudiante"
	}
	nextRole, err := h.repo.GetRoleByName(ctx, nextRoleName)
	if err != nil {
		h.logger.Error("role lookup", zap.String("role", nextRoleName), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}

	if err := h.repo.UpdateRole(ctx, target.ID, nextRole.ID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "usuario no encontrado", "")
			return
		}
		h.logger.Error("update role", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}

	target.Role = *nextRole
	response.OK(c, target)
}
