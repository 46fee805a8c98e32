package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/response"
)

const (
	// ContextUser is the key for the reloaded *models.User in gin context.
	ContextUser = "user"
	// ContextClaims is the key for the *auth.Claims in gin context.
	ContextClaims = "claims"
)

// UserLoader reloads the live user record for a token's subject.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticate validates the bearer token (header or session cookie),
// then reloads the user's current record so that tokens issued before a
// deactivation stop working immediately.
func Authenticate(jwtService *auth.JWTService, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "no autenticado", "falta el token de sesión")
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "no autenticado", "token inválido o expirado")
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				response.AbortError(c, http.StatusUnauthorized, "no autenticado", "token inválido o expirado")
				return
			}
			response.AbortError(c, http.StatusInternalServerError, "error interno del servidor", "")
			return
		}
		if !user.IsActive() {
			response.AbortError(c, http.StatusForbidden, "acceso denegado", "la cuenta está inactiva")
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// CurrentUser returns the reloaded user set by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}

// CurrentClaims returns the token claims set by Authenticate.
func CurrentClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(ContextClaims).(*auth.Claims)
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}
