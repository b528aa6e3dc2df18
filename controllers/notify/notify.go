package notifyControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/notify"
)

// GET /ws/notifications?token=
func NotificationsWebSocketHandler(hub *notify.Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(middleware.SessionIDKey)
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		// The upgrader answers the client itself when the handshake fails.
		if err := hub.Serve(c.Writer, c.Request, sessionID); err != nil {
			logger.Warn("websocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}
