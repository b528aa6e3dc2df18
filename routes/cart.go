package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/junaidrashid-git/storefront/controllers/cart"
	"github.com/junaidrashid-git/storefront/middleware"
)

// SetupCartRoutes registers all "/cart/*" endpoints. Requires a guest token.
func SetupCartRoutes(r *gin.Engine, deps Dependencies) {
	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.ValidateToken(deps.Issuer, deps.Registry))
	{
		// ──────────────── Line items ────────────────
		cartGroup.GET("", cartControllers.GetCart())                                     // GET /cart
		cartGroup.DELETE("", cartControllers.ClearCart())                                // DELETE /cart
		cartGroup.POST("/items", cartControllers.AddCartItem(deps.Catalog, deps.Logger)) // POST /cart/items
		cartGroup.POST("/buy-now", cartControllers.BuyNow(deps.Catalog, deps.Logger))    // POST /cart/buy-now
		cartGroup.PATCH("/items/:product_id", cartControllers.UpdateCartItemQuantity())  // PATCH /cart/items/:product_id
		cartGroup.DELETE("/items/:product_id", cartControllers.DeleteCartItem())         // DELETE /cart/items/:product_id

		// ──────────────── Quantity selector ────────────────
		pending := cartGroup.Group("/pending")
		{
			pending.POST("/inc", cartControllers.IncrementPending())
			pending.POST("/dec", cartControllers.DecrementPending())
			pending.POST("/reset", cartControllers.ResetPending())
		}

		cartGroup.PUT("/visibility", cartControllers.SetCartVisibility()) // PUT /cart/visibility
	}
}
