package productcontroller

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/catalog"
)

// Seeder writes products into a catalog that accepts writes.
type Seeder interface {
	Seed(ctx context.Context, products []catalog.Product) error
}

// POST /admin/products/import-excel
// Rows follow the export layout. Rows without a name, slug or a valid price are skipped.
func ImportProductsFromExcel(seeder Seeder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}

		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		products, skippedCount := parseProductRows(xlFile.Sheets[0])
		if len(products) > 0 {
			if err := seeder.Seed(c.Request.Context(), products); err != nil {
				logger.Error("product import failed", zap.Int("rows", len(products)), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import products"})
				return
			}
		}

		logger.Info("products imported", zap.Int("imported", len(products)), zap.Int("skipped", skippedCount))
		c.JSON(http.StatusOK, gin.H{
			"message":        "Import completed",
			"imported_count": len(products),
			"skipped_count":  skippedCount,
		})
	}
}

func parseProductRows(sheet *xlsx.Sheet) ([]catalog.Product, int) {
	var products []catalog.Product
	skippedCount := 0

	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		if row == nil || len(row.Cells) < 4 {
			skippedCount++
			continue
		}

		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}

		name, slug := get(1), get(2)
		price, err := decimal.NewFromString(get(3))
		if name == "" || slug == "" || err != nil || price.IsNegative() {
			skippedCount++
			continue
		}

		id := get(0)
		if id == "" {
			id = slug
		}

		var images []string
		for _, ref := range strings.Split(get(4), ",") {
			if ref = strings.TrimSpace(ref); ref != "" {
				images = append(images, ref)
			}
		}

		products = append(products, catalog.Product{
			ID:          id,
			Name:        name,
			Slug:        slug,
			Price:       decimal.NewNullDecimal(price),
			Images:      images,
			Details:     get(5),
			Ingredients: get(6),
			Weight:      get(7),
			Delivery:    get(8),
			SKU:         get(9),
		})
	}
	return products, skippedCount
}
