package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cee-connect/backend/pkg/response"
)

// RequireAdmin allows only users whose reloaded role carries the admin
// flag. Runs after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !user.Role.IsAdmin {
			response.AbortError(c, http.StatusForbidden, "acceso denegado", "se requiere rol de administrador")
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin allows only tokens issued with the super-admin flag.
// The flag is read from the claims, not re-queried.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if !claims.IsSuperAdmin {
			response.AbortError(c, http.StatusForbidden, "acceso denegado", "se requiere rol de superadministrador")
			return
		}
		c.Next()
	}
}
