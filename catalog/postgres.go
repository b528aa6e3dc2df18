package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junaidrashid-git/storefront/models"
)

// Postgres serves the catalog from the products table.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Products(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := s.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, fromModel(row))
	}
	return products, nil
}

func (s *Postgres) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *Postgres) ProductByID(ctx context.Context, id string) (Product, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Postgres) first(ctx context.Context, where, key string) (Product, error) {
	var row models.Product
	if err := s.db.WithContext(ctx).Where(where, key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, key)
		}
		return Product{}, fmt.Errorf("failed to fetch product %s: %w", key, err)
	}
	return fromModel(row), nil
}

// Seed upserts products by slug. Products without a price are rejected.
func (s *Postgres) Seed(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !p.Price.Valid {
			return fmt.Errorf("product %s has no price", p.Slug)
		}
		rows = append(rows, toModel(p))
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

func fromModel(row models.Product) Product {
	return Product{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Price:       decimal.NewNullDecimal(row.Price),
		Images:      row.Images,
		Details:     row.Details,
		Ingredients: row.Ingredients,
		Weight:      row.Weight,
		Delivery:    row.Delivery,
		SKU:         row.SKU,
	}
}

func toModel(p Product) models.Product {
	return models.Product{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       p.Price.Decimal,
		Images:      p.Images,
		Details:     p.Details,
		Ingredients: p.Ingredients,
		Weight:      p.Weight,
		Delivery:    p.Delivery,
		SKU:         p.SKU,
	}
}
