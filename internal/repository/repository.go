package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiplagat/pesaledger/internal/models"
)

// Wallet repository interface
type WalletRepo interface {
	// Create wallet with zero balance
	// If a wallet with the handle exists already has to return apperrors.ErrWalletExists
	CreateWallet(ctx context.Context, handle string, ownerID *uuid.UUID) (models.Wallet, error)

	// Get wallet by handle
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, handle string) (models.Wallet, error)

	// Lock wallet rows for the duration of the surrounding transaction.
	// Handles are locked in lexicographic order so that two movements touching
	// the same pair of wallets in opposite directions cannot deadlock.
	// Must only be called inside InTx.
	LockWallets(ctx context.Context, handles ...string) error

	// Apply a signed balance delta and return the new balance.
	// ErrInsufficientFunds if the result would be negative,
	// ErrWalletFrozen if the wallet is frozen,
	// ErrWalletNotFound if the handle is unknown.
	// Must only be called inside InTx: the orchestrator owns the atomic unit.
	ApplyDelta(ctx context.Context, handle string, delta decimal.Decimal) (decimal.Decimal, error)

	// Set wallet status (active or frozen)
	SetStatus(ctx context.Context, handle string, status string) (models.Wallet, error)
}

type CreateTransactionParams struct {
	FromHandle      string
	ToHandle        string
	GrossAmount     decimal.Decimal
	Fee             decimal.Decimal
	Type            string
	LinkedReference *string
}

// TransactionFilter narrows List output. Zero-value fields are ignored.
type TransactionFilter struct {
	// Matches records with the handle on either side
	Handle     string
	FromHandle string
	ToHandle   string

	// Matches records where a wallet on either side belongs to the owner.
	// Owners may hold several wallets, so this is wider than Handle.
	OwnerID *uuid.UUID

	Type          string
	Status        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// Pagination. Limit is capped by the repository
	Limit  int
	Offset int
}

// Transaction ledger repository interface
type TransactionRepo interface {
	// Create record in 'pending' status
	Create(ctx context.Context, arg CreateTransactionParams) (models.Transaction, error)

	// Get record by id
	// If not found must return apperrors.ErrTransactionNotFound
	GetByID(ctx context.Context, id int64) (models.Transaction, error)

	// Advance a pending record to 'completed'.
	// Records already terminal are left untouched and ErrTransactionNotFound
	// is returned, so at most one terminal outcome ever exists per record.
	MarkCompleted(ctx context.Context, id int64) (models.Transaction, error)

	// Advance a pending record to 'failed' carrying the failure reason
	MarkFailed(ctx context.Context, id int64, reason string) (models.Transaction, error)

	// List committed records matching filter, newest first
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
}

// Storage combines repositories and transaction management
type Storage interface {
	Wallet() WalletRepo
	Transaction() TransactionRepo

	// Run fn within a single database transaction.
	// The storage passed to fn routes every repository call through that
	// transaction; rollback on error, commit otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
