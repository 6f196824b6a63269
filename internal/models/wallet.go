package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WalletActive = "active"
	WalletFrozen = "frozen"
)

// Wallet is the source of truth for a user's funds.
// The platform wallet has no owner, so OwnerID is nullable.
type Wallet struct {
	Handle    string
	OwnerID   *uuid.UUID
	Balance   decimal.Decimal
	Status    string
	CreatedAt time.Time
}

func (w Wallet) IsFrozen() bool {
	return w.Status == WalletFrozen
}
