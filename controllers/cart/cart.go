package cartControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/catalog"
	"github.com/junaidrashid-git/storefront/middleware"
)

type CartItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	// Omitted means "use the pending quantity".
	Quantity *int `json:"quantity"`
}

type QuantityInput struct {
	Direction string `json:"direction" binding:"required"`
}

type VisibilityInput struct {
	Visible *bool `json:"visible" binding:"required"`
}

type cartResponse struct {
	cart.State
	TotalFormatted string `json:"total_formatted"`
}

func newCartResponse(state cart.State) cartResponse {
	return cartResponse{State: state, TotalFormatted: cart.FormatPrice(state.TotalPrice)}
}

func currentCart(c *gin.Context) (*cart.Store, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return sess.Cart, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GET /cart
func GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newCartResponse(store.Snapshot()))
	}
}

// POST /cart/items
func AddCartItem(source catalog.Source, logger *zap.Logger) gin.HandlerFunc {
	return addHandler(source, logger, func(store *cart.Store, p cart.Product, input CartItemInput) (cart.LineItem, error) {
		if input.Quantity != nil {
			return store.Add(p, *input.Quantity)
		}
		return store.AddPending(p)
	})
}

// POST /cart/buy-now
func BuyNow(source catalog.Source, logger *zap.Logger) gin.HandlerFunc {
	return addHandler(source, logger, func(store *cart.Store, p cart.Product, _ CartItemInput) (cart.LineItem, error) {
		return store.BuyNow(p)
	})
}

func addHandler(source catalog.Source, logger *zap.Logger, add func(*cart.Store, cart.Product, CartItemInput) (cart.LineItem, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		// Fetch product from the catalog
		product, err := source.ProductByID(c.Request.Context(), input.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				store.Notify(cart.LevelError, "Product does not exist")
				c.JSON(http.StatusNotFound, gin.H{"error": "Product does not exist"})
				return
			}
			logger.Error("failed to fetch product", zap.String("product_id", input.ProductID), zap.Error(err))
			store.Notify(cart.LevelError, "Failed to validate product")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to validate product"})
			return
		}

		item, err := add(store, product.CartProduct(), input)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"item": item,
			"cart": newCartResponse(store.Snapshot()),
		})
	}
}

// PATCH /cart/items/:product_id
func UpdateCartItemQuantity() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}

		var input QuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		direction, err := cart.ParseDirection(input.Direction)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, err := store.SetQuantity(c.Param("product_id"), direction)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"item": item,
			"cart": newCartResponse(store.Snapshot()),
		})
	}
}

// DELETE /cart/items/:product_id
func DeleteCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}

		if err := store.Remove(c.Param("product_id")); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, newCartResponse(store.Snapshot()))
	}
}

// DELETE /cart
func ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}
		store.Clear()
		c.JSON(http.StatusOK, newCartResponse(store.Snapshot()))
	}
}

// POST /cart/pending/inc
func IncrementPending() gin.HandlerFunc {
	return pendingHandler(func(store *cart.Store) int { return store.IncrementPending() })
}

// POST /cart/pending/dec
func DecrementPending() gin.HandlerFunc {
	return pendingHandler(func(store *cart.Store) int { return store.DecrementPending() })
}

// POST /cart/pending/reset
func ResetPending() gin.HandlerFunc {
	return pendingHandler(func(store *cart.Store) int {
		store.ResetQuantitySelectors()
		return 1
	})
}

func pendingHandler(step func(*cart.Store) int) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending_quantity": step(store)})
	}
}

// PUT /cart/visibility
func SetCartVisibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := currentCart(c)
		if !ok {
			return
		}

		var input VisibilityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		store.SetVisible(*input.Visible)
		c.JSON(http.StatusOK, gin.H{"visible": *input.Visible})
	}
}
