package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/session"
)

// POST /auth/guest
func CreateGuestSession(registry *session.Registry, issuer *Issuer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := uuid.NewString()

		sess, err := registry.Open(sessionID)
		if err != nil {
			logger.Error("failed to open guest session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest session"})
			return
		}

		// Issue JWT for guest
		token, _, err := issuer.Issue(sessionID)
		if err != nil {
			registry.Close(sessionID)
			logger.Error("failed to issue guest token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sess.ID,
			"token":      token,
			"expires_at": sess.ExpiresAt,
		})
	}
}
