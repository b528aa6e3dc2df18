package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/catalog"
)

// Column layout shared by export and import.
var productColumns = []string{
	"ID", "Name", "Slug", "Price", "Images",
	"Details", "Ingredients", "Weight", "Delivery", "SKU",
}

// GET /admin/products/export-excel
func ExportProductsToExcel(source catalog.Source, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := source.Products(c.Request.Context())
		if err != nil {
			logger.Error("failed to fetch products for export", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch products"})
			return
		}

		file, err := productsWorkbook(products)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			logger.Error("failed to write Excel file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

func productsWorkbook(products []catalog.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range productColumns {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()

		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		if p.Price.Valid {
			row.AddCell().SetString(p.Price.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(strings.Join(p.Images, ","))
		row.AddCell().SetString(p.Details)
		row.AddCell().SetString(p.Ingredients)
		row.AddCell().SetString(p.Weight)
		row.AddCell().SetString(p.Delivery)
		row.AddCell().SetString(p.SKU)
	}
	return file, nil
}
