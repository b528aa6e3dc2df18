package checkoutControllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/session"
)

// POST /checkout
func CreateCheckoutSession(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.CurrentSession(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if svc == nil {
			sess.Cart.Notify(cart.LevelError, "Checkout is currently unavailable.")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Checkout is not configured"})
			return
		}

		result, err := svc.Checkout(c.Request.Context(), sess.ID, sess.Cart)
		if err != nil {
			var pe *checkout.ProcessorError
			switch {
			case errors.Is(err, checkout.ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			case errors.As(err, &pe):
				c.JSON(http.StatusBadGateway, gin.H{"error": "Payment processor rejected the checkout", "details": pe.Message})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":  result.ID,
			"url": result.URL,
		})
	}
}

type StripeWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			PaymentStatus     string `json:"payment_status"` // "paid", "unpaid", "no_payment_required"
		} `json:"object"`
	} `json:"data"`
}

// POST /checkout/webhook
// Signature is checked by middleware.StripeWebhookAuth before this runs.
func StripeWebhookHandler(svc *checkout.Service, registry *session.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event StripeWebhookEvent
		if err := json.NewDecoder(c.Request.Body).Decode(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse webhook event"})
			return
		}

		obj := event.Data.Object
		switch event.Type {
		case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
			return
		}
		if obj.PaymentStatus == "unpaid" {
			c.JSON(http.StatusOK, gin.H{"message": "Payment not successful"})
			return
		}
		if obj.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing checkout session id"})
			return
		}

		var store *cart.Store
		if sess, err := registry.Get(obj.ClientReferenceID); err == nil {
			store = sess.Cart
		}

		if err := svc.Complete(c.Request.Context(), obj.ClientReferenceID, obj.ID, store); err != nil {
			logger.Error("failed to complete checkout", zap.String("event_id", event.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete checkout"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Checkout completed"})
	}
}
