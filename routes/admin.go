package routes

import (
	"github.com/gin-gonic/gin"

	productcontroller "github.com/junaidrashid-git/storefront/controllers/product"
	"github.com/junaidrashid-git/storefront/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, deps Dependencies) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(deps.AdminAPIKey))
	{
		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(deps.Catalog, deps.Logger))

			// Only a writable catalog (the Postgres mirror) accepts imports.
			if seeder, ok := deps.Catalog.(productcontroller.Seeder); ok {
				productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(seeder, deps.Logger))
			}
		}
	}
}
