package routes

import (
	"github.com/gin-gonic/gin"

	notifyControllers "github.com/junaidrashid-git/storefront/controllers/notify"
	"github.com/junaidrashid-git/storefront/middleware"
)

func SetupNotifyRoutes(r *gin.Engine, deps Dependencies) {
	ws := r.Group("/ws")
	{
		// websocket endpoint for cart notifications; browsers pass the token as ?token=
		ws.GET("/notifications",
			middleware.ValidateToken(deps.Issuer, deps.Registry),
			notifyControllers.NotificationsWebSocketHandler(deps.Hub, deps.Logger),
		)
	}
}
