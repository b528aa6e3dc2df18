package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubjectCheckoutSessionCreated = "storefront.checkout.session_created"
	SubjectCheckoutCompleted      = "storefront.checkout.completed"
)

// Publisher sends domain events to whoever listens downstream.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// CheckoutSessionCreated is published once the payment processor has accepted a checkout.
type CheckoutSessionCreated struct {
	SessionID  string          `json:"session_id"`
	CheckoutID string          `json:"checkout_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Items      []Item          `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CheckoutCompleted is published when the processor reports a paid checkout.
type CheckoutCompleted struct {
	SessionID   string    `json:"session_id"`
	CheckoutID  string    `json:"checkout_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

func (Nop) Close() error { return nil }
