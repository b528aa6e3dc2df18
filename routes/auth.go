package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/storefront/auth"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, deps Dependencies) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/guest", auth.CreateGuestSession(deps.Registry, deps.Issuer, deps.Logger))
	}
}
