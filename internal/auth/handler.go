package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/pkg/response"
	"github.com/cee-connect/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"nombre" binding:"required"`
	Email    string `json:"correo" binding:"required,email"`
	Password string `json:"contrasena" binding:"required,min=6"`
	RoleID   string `json:"rolId"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"correo" binding:"required,email"`
	Password string `json:"contrasena" binding:"required"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo         *Repository
	jwt          *JWTService
	cookieMaxAge int
	logger       *zap.Logger
}

// NewHandler creates an auth handler. cookieMaxAge is in seconds and
// mirrors the token lifetime.
func NewHandler(repo *Repository, jwt *JWTService, cookieMaxAge int, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, cookieMaxAge: cookieMaxAge, logger: logger}
}

// Login handles POST /auth/login. On success it returns the token and
// sets an http-only session cookie mirroring it.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "credenciales inválidas", "")
			return
		}
		h.logger.Error("login lookup", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Error(c, http.StatusUnauthorized, "credenciales inválidas", "")
		return
	}
	if !user.IsActive() {
		response.Error(c, http.StatusForbidden, "la cuenta está inactiva", "")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Role.Name, user.Role.IsAdmin, user.Role.IsSuperAdmin)
	if err != nil {
		h.logger.Error("token generation", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}

	c.SetCookie("token", token, h.cookieMaxAge, "/", "", false, true)
	response.OK(c, gin.H{"token": token, "user": user})
}

// Register handles POST /auth/register. Without rolId the user is
// registered as estudiante; the superadmin role cannot be self-assigned.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}

	ctx := c.Request.Context()
	roleID, err := h.resolveRole(c, req.RoleID)
	if err != nil {
		return // response already written
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}

	user, err := h.repo.Create(ctx, req.Name, req.Email, hash, roleID)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Error(c, http.StatusConflict, "el correo ya está registrado", "")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	response.Created(c, user)
}

func (h *Handler) resolveRole(c *gin.Context, roleID string) (uuid.UUID, error) {
	ctx := c.Request.Context()
	if roleID == "" {
		role, err := h.repo.GetRoleByName(ctx, "estudiante")
		if err != nil {
			h.logger.Error("default role lookup", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
			return uuid.Nil, err
		}
		return role.ID, nil
	}
	id, err := uuid.Parse(roleID)
	if err != nil {
		response.Validation(c, "rolId inválido")
		return uuid.Nil, err
	}
	role, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			response.Validation(c, "el rol indicado no existe")
			return uuid.Nil, err
		}
		h.logger.Error("role lookup", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return uuid.Nil, err
	}
	if role.IsSuperAdmin {
		response.Error(c, http.StatusForbidden, "no es posible registrarse con ese rol", "")
		return uuid.Nil, errors.New("superadmin self-assignment")
	}
	return role.ID, nil
}
