package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

func (r *WalletRepo) CreateWallet(ctx context.Context, handle string, ownerID *uuid.UUID) (models.Wallet, error) {
	const createWallet = `
	INSERT INTO wallets (handle, owner_id, balance, status)
	VALUES ($1, $2, 0, 'active')
	RETURNING handle, owner_id, balance, status, created_at
	`

	rows, _ := r.DB.Query(ctx, createWallet, handle, ownerID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, apperrors.ErrWalletExists
		}

		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

func (r *WalletRepo) GetWallet(ctx context.Context, handle string) (models.Wallet, error) {
	const getWalletByHandle = `
	SELECT handle, owner_id, balance, status, created_at FROM wallets
	WHERE handle = $1
	`

	rows, _ := r.DB.Query(ctx, getWalletByHandle, handle)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

// LockWallets takes row locks on the given handles in lexicographic order.
// Only meaningful inside a transaction; the locks are held until commit.
func (r *WalletRepo) LockWallets(ctx context.Context, handles ...string) error {
	const lockWallets = `
	SELECT handle FROM wallets
	WHERE handle = ANY($1)
	ORDER BY handle
	FOR UPDATE
	`

	sorted := slices.Clone(handles)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rows, _ := r.DB.Query(ctx, lockWallets, sorted)
	locked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var h string
		err := row.Scan(&h)
		return h, err
	})

	switch {
	case err != nil:
		return translateConflict(err)
	case len(locked) != len(sorted):
		return apperrors.ErrWalletNotFound
	default:
		return nil
	}
}

func (r *WalletRepo) ApplyDelta(ctx context.Context, handle string, delta decimal.Decimal) (decimal.Decimal, error) {
	const applyDelta = `
	UPDATE wallets
	SET balance = balance + $2
	WHERE handle = $1 AND status = 'active'
	RETURNING balance
	`

	var balance decimal.Decimal
	err := r.DB.QueryRow(ctx, applyDelta, handle, delta).Scan(&balance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the handle is unknown or the wallet is frozen
		wallet, getErr := r.GetWallet(ctx, handle)
		if getErr != nil {
			return balance, getErr
		}
		if wallet.IsFrozen() {
			return balance, apperrors.ErrWalletFrozen
		}
		return balance, fmt.Errorf("wallet %q vanished during update", handle)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return balance, apperrors.ErrInsufficientFunds
	}

	return balance, translateConflict(err)
}

func (r *WalletRepo) SetStatus(ctx context.Context, handle string, status string) (models.Wallet, error) {
	const setStatus = `
	UPDATE wallets
	SET status = $2
	WHERE handle = $1
	RETURNING handle, owner_id, balance, status, created_at
	`

	rows, _ := r.DB.Query(ctx, setStatus, handle, status)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.Handle, &w.OwnerID, &w.Balance, &w.Status, &w.CreatedAt)
	return w, err
}

// translateConflict maps deadlocks and serialization failures to the
// retryable apperrors.ErrConcurrencyConflict
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure:
			return fmt.Errorf("%w: %s", apperrors.ErrConcurrencyConflict, pgErr.Message)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
