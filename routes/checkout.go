package routes

import (
	"github.com/gin-gonic/gin"

	checkoutControllers "github.com/junaidrashid-git/storefront/controllers/checkout"
	"github.com/junaidrashid-git/storefront/middleware"
)

func SetupCheckoutRoutes(r *gin.Engine, deps Dependencies) {
	checkoutGroup := r.Group("/checkout")
	{
		// Checkout session creation
		checkoutGroup.POST("",
			middleware.ValidateToken(deps.Issuer, deps.Registry),
			checkoutControllers.CreateCheckoutSession(deps.Checkout),
		)

		// Webhook endpoint: middleware verifies the Stripe signature
		if deps.Checkout != nil && deps.StripeWebhookSecret != "" {
			checkoutGroup.POST("/webhook",
				middleware.StripeWebhookAuth(deps.StripeWebhookSecret, deps.Logger),
				checkoutControllers.StripeWebhookHandler(deps.Checkout, deps.Registry, deps.Logger),
			)
		}
	}
}
