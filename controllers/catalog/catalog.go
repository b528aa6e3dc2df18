package catalogControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/catalog"
)

// ProductView is a catalog product with its images resolved and its price formatted for display.
type ProductView struct {
	catalog.Product
	ImageURLs      []string `json:"image_urls"`
	PriceFormatted string   `json:"price_formatted,omitempty"`
}

func newProductView(p catalog.Product, images catalog.ImageURLBuilder) ProductView {
	v := ProductView{Product: p, ImageURLs: images.URLs(p.Images)}
	if p.Price.Valid {
		v.PriceFormatted = cart.FormatPrice(p.Price.Decimal)
	}
	return v
}

func newProductViews(products []catalog.Product, images catalog.ImageURLBuilder) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p, images))
	}
	return out
}

// GET /catalog/products
func GetProducts(source catalog.Source, images catalog.ImageURLBuilder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := source.Products(c.Request.Context())
		if err != nil {
			logger.Error("failed to fetch products", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": newProductViews(products, images)})
	}
}

// GET /catalog/products/:slug
// Returns the product together with the rest of the catalog as "related".
func GetProductBySlug(source catalog.Source, images catalog.ImageURLBuilder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product slug is required"})
			return
		}

		product, err := source.ProductBySlug(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				logger.Error("failed to fetch product", zap.String("slug", slug), zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}

		all, err := source.Products(c.Request.Context())
		if err != nil {
			logger.Warn("failed to fetch related products", zap.String("slug", slug), zap.Error(err))
			all = nil
		}

		c.JSON(http.StatusOK, gin.H{
			"product": newProductView(product, images),
			"related": newProductViews(catalog.Related(all, product.ID), images),
		})
	}
}

// GET /catalog/images?ref=
func ResolveImage(images catalog.ImageURLBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Query("ref")
		if ref == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ref is required"})
			return
		}
		url, err := images.URL(ref)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ref": ref, "url": url})
	}
}
