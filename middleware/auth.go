package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/session"
)

const (
	SessionIDKey = "session_id"
	SessionKey   = "session"
)

// ValidateToken checks the guest token and loads its session into the context. The token comes from
// the Authorization header, or from the token query parameter for websocket upgrades.
func ValidateToken(issuer *auth.Issuer, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		sess, err := registry.Get(claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, start a new one"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			}
			c.Abort()
			return
		}

		c.Set(SessionIDKey, sess.ID)
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session ValidateToken stored on c.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	return c.Query("token")
}
