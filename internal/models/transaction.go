package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement types
const (
	TypeP2P          = "p2p"
	TypePurchase     = "purchase"
	TypeBillPayment  = "bill_payment"
	TypeSubscription = "subscription"
	TypePublication  = "publication"
)

// Transaction statuses
// Pending is the only non-terminal status; transitions are forward only
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	// Reserved in the status enum and CHECK constraints; no flow writes it
	// yet, a cancellation operation would
	StatusCancelled = "cancelled"
)

// Transaction is a ledger record of one attempted money movement.
// Terminal records are immutable and kept forever for audit.
type Transaction struct {
	ID              int64
	FromHandle      string
	ToHandle        string
	GrossAmount     decimal.Decimal
	Fee             decimal.Decimal
	Type            string
	LinkedReference *string
	Status          string
	FailureReason   *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// NetAmount is the amount actually credited to the recipient
func (t Transaction) NetAmount() decimal.Decimal {
	return t.GrossAmount.Sub(t.Fee)
}

func (t Transaction) IsTerminal() bool {
	return t.Status != StatusPending
}

func IsKnownType(t string) bool {
	switch t {
	case TypeP2P, TypePurchase, TypeBillPayment, TypeSubscription, TypePublication:
		return true
	}
	return false
}
