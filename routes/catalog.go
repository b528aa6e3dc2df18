package routes

import (
	"github.com/gin-gonic/gin"

	catalogControllers "github.com/junaidrashid-git/storefront/controllers/catalog"
)

// SetupCatalogRoutes registers all "/catalog/*" endpoints. No auth.
func SetupCatalogRoutes(r *gin.Engine, deps Dependencies) {
	catalogGroup := r.Group("/catalog")
	{
		catalogGroup.GET("/products", catalogControllers.GetProducts(deps.Catalog, deps.Images, deps.Logger))            // GET /catalog/products
		catalogGroup.GET("/products/:slug", catalogControllers.GetProductBySlug(deps.Catalog, deps.Images, deps.Logger)) // GET /catalog/products/:slug
		catalogGroup.GET("/images", catalogControllers.ResolveImage(deps.Images))                                        // GET /catalog/images?ref=
	}
}
