package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product mirrors a catalog document for local development and the admin export.
type Product struct {
	ID          string          `gorm:"primaryKey"`
	Name        string          `gorm:"not null"`
	Slug        string          `gorm:"uniqueIndex;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Images      []string        `gorm:"serializer:json"`
	Details     string
	Ingredients string
	Weight      string
	Delivery    string
	SKU         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}
