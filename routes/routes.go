package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/catalog"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/session"
)

// Dependencies is everything the handlers need, built once in main.
type Dependencies struct {
	Logger   *zap.Logger
	Registry *session.Registry
	Issuer   *auth.Issuer
	Hub      *notify.Hub
	Catalog  catalog.Source
	Images   catalog.ImageURLBuilder
	// Nil when Stripe is not configured; POST /checkout then answers 503.
	Checkout *checkout.Service

	AdminAPIKey         string
	StripeWebhookSecret string
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": deps.Registry.Len()})
	})

	// Public auth routes (no middleware)
	SetupAuthRoutes(r, deps)

	// Public catalog browsing
	SetupCatalogRoutes(r, deps)

	// Cart routes (guest token)
	SetupCartRoutes(r, deps)

	// Checkout and Stripe webhook
	SetupCheckoutRoutes(r, deps)

	// Notification stream
	SetupNotifyRoutes(r, deps)

	// Admin routes (API-key)
	SetupAdminRoutes(r, deps)
}
