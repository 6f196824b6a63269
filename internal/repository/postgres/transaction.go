package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/models"
	"github.com/kiplagat/pesaledger/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

const transactionColumns = `id, from_handle, to_handle, gross_amount, fee, type, linked_reference, status, failure_reason, created_at, completed_at`

type TransactionRepo struct {
	DB DBTX
}

func (r *TransactionRepo) Create(ctx context.Context, arg repository.CreateTransactionParams) (models.Transaction, error) {
	const createTransaction = `
	INSERT INTO transactions (from_handle, to_handle, gross_amount, fee, type, linked_reference, status)
	VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	RETURNING ` + transactionColumns

	rows, _ := r.DB.Query(ctx, createTransaction,
		arg.FromHandle, arg.ToHandle, arg.GrossAmount, arg.Fee, arg.Type, arg.LinkedReference)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return tr, fmt.Errorf("db error: %w", err)
	}

	return tr, nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (models.Transaction, error) {
	const getTransaction = `
	SELECT ` + transactionColumns + ` FROM transactions
	WHERE id = $1
	`

	rows, _ := r.DB.Query(ctx, getTransaction, id)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

// MarkCompleted advances a pending record to completed.
// The status guard makes the transition idempotent-safe: a record that already
// reached a terminal status is never rewritten.
func (r *TransactionRepo) MarkCompleted(ctx context.Context, id int64) (models.Transaction, error) {
	const markCompleted = `
	UPDATE transactions
	SET status = 'completed', completed_at = now()
	WHERE id = $1 AND status = 'pending'
	RETURNING ` + transactionColumns

	rows, _ := r.DB.Query(ctx, markCompleted, id)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

func (r *TransactionRepo) MarkFailed(ctx context.Context, id int64, reason string) (models.Transaction, error) {
	const markFailed = `
	UPDATE transactions
	SET status = 'failed', failure_reason = $2, completed_at = now()
	WHERE id = $1 AND status = 'pending'
	RETURNING ` + transactionColumns

	rows, _ := r.DB.Query(ctx, markFailed, id, reason)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

func (r *TransactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	conds := make([]string, 0, 6)
	args := make([]any, 0, 6)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Handle != "" {
		p := arg(filter.Handle)
		conds = append(conds, fmt.Sprintf("(from_handle = %s OR to_handle = %s)", p, p))
	}
	if filter.FromHandle != "" {
		conds = append(conds, "from_handle = "+arg(filter.FromHandle))
	}
	if filter.ToHandle != "" {
		conds = append(conds, "to_handle = "+arg(filter.ToHandle))
	}
	if filter.OwnerID != nil {
		// Owners may hold several wallets, match every wallet of theirs
		p := arg(*filter.OwnerID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM wallets w WHERE w.handle IN (from_handle, to_handle) AND w.owner_id = %s)", p))
	}
	if filter.Type != "" {
		conds = append(conds, "type = "+arg(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, "created_at >= "+arg(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "created_at < "+arg(*filter.CreatedBefore))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT %s OFFSET %s", arg(limit), arg(max(filter.Offset, 0)))

	rows, _ := r.DB.Query(ctx, query, args...)
	trs, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return trs, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.FromHandle, &t.ToHandle, &t.GrossAmount, &t.Fee, &t.Type,
		&t.LinkedReference, &t.Status, &t.FailureReason, &t.CreatedAt, &t.CompletedAt,
	)
	return t, err
}
