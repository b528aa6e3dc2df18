package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutStatus string

const (
	CheckoutStatusCreated   CheckoutStatus = "created"   // Processor returned a session, shopper redirected
	CheckoutStatusFailed    CheckoutStatus = "failed"    // Processor refused or was unreachable
	CheckoutStatusCompleted CheckoutStatus = "completed" // Webhook confirmed payment
)

// CheckoutSession is the audit row written for every checkout attempt.
type CheckoutSession struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SessionID  string          `gorm:"index;not null" json:"session_id"`
	ExternalID string          `gorm:"index" json:"external_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency   string          `gorm:"type:VARCHAR(3)" json:"currency"`
	ItemCount  int             `json:"item_count"`
	Status     CheckoutStatus  `gorm:"type:VARCHAR(20);default:'created'" json:"status"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
