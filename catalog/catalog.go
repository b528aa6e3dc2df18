package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront/cart"
)

var ErrProductNotFound = errors.New("product not found")

// Source is a read-only view of the product catalog.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	ProductBySlug(ctx context.Context, slug string) (Product, error)
	ProductByID(ctx context.Context, id string) (Product, error)
}

// Product is a catalog record. Images holds asset references, resolved to URLs by ImageURLBuilder.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Price       decimal.NullDecimal `json:"price"`
	Images      []string            `json:"images"`
	Details     string              `json:"details,omitempty"`
	Ingredients string              `json:"ingredients,omitempty"`
	Weight      string              `json:"weight,omitempty"`
	Delivery    string              `json:"delivery,omitempty"`
	SKU         string              `json:"sku,omitempty"`
}

// CartProduct keeps only what the cart needs.
func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:     p.ID,
		Name:   p.Name,
		Slug:   p.Slug,
		Images: p.Images,
		Price:  p.Price,
	}
}

// Related returns every product except the one with the given id, in source order.
func Related(all []Product, id string) []Product {
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// text accepts a JSON string or number; editors store weight both ways.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = text(n.String())
	return nil
}
