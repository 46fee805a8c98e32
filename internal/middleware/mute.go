package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/response"
)

// MuteChecker reports the caller's active sanction, lazily flipping an
// expired one inactive. A nil sanction means the user may participate.
type MuteChecker interface {
	ActiveSanction(ctx context.Context, userID uuid.UUID) (*models.MuteSanction, error)
}

// CheckMute blocks participation writes from muted users. Applied only
// to mutation endpoints that represent participation; expiry happens
// here as a side effect of the read, there is no background sweeper.
func CheckMute(checker MuteChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		sanction, err := checker.ActiveSanction(c.Request.Context(), user.ID)
		if err != nil {
			response.AbortError(c, http.StatusInternalServerError, "error interno del servidor", "")
			return
		}
		if sanction != nil {
			msg := fmt.Sprintf("Estás silenciado hasta el %s", sanction.EndsAt.Local().Format("02/01/2006 15:04"))
			response.AbortError(c, http.StatusForbidden, msg, sanction.Reason)
			return
		}
		c.Next()
	}
}
