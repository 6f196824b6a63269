package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/logger"
	"github.com/kiplagat/pesaledger/internal/models"
	"github.com/kiplagat/pesaledger/internal/repository"
)

// How many times a movement is retried after a transient conflict before the
// conflict is surfaced to the caller
const defaultMaxRetries = 3

type FeePolicy interface {
	Compute(txType string, gross decimal.Decimal) (decimal.Decimal, error)
}

type Config struct {
	// Handle of the system wallet that accumulates fees
	PlatformHandle string

	// Retry budget for apperrors.ErrConcurrencyConflict, default 3
	MaxRetries int
}

// Service orchestrates money movements. It is the only component allowed to
// mutate wallet balances, and every mutation happens inside one storage
// transaction so no partial movement is ever observable.
type Service struct {
	storage        repository.Storage
	fees           FeePolicy
	platformHandle string
	maxRetries     int
	logger         logger.Logger
}

func NewService(cfg Config, storage repository.Storage, fees FeePolicy, l logger.Logger) (*Service, error) {
	if cfg.PlatformHandle == "" {
		return nil, errors.New("platform wallet handle is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		storage:        storage,
		fees:           fees,
		platformHandle: cfg.PlatformHandle,
		maxRetries:     cfg.MaxRetries,
		logger:         l,
	}, nil
}

// Execute moves grossAmount from one wallet to another, splitting off the
// platform fee. It returns only after the movement reached a terminal status:
// the returned record is either completed or the error explains why not.
//
// Validation failures return before any ledger record exists. Once the
// pending record is written, every outcome leaves it terminal.
func (s *Service) Execute(ctx context.Context, from, to string, grossAmount decimal.Decimal, txType string, linkedRef *string) (models.Transaction, error) {
	var tr models.Transaction

	if err := s.validate(ctx, from, to, grossAmount, txType); err != nil {
		return tr, err
	}

	fee, err := s.fees.Compute(txType, grossAmount)
	if err != nil {
		return tr, err
	}

	tr, err = s.storage.Transaction().Create(ctx, repository.CreateTransactionParams{
		FromHandle:      from,
		ToHandle:        to,
		GrossAmount:     grossAmount,
		Fee:             fee,
		Type:            txType,
		LinkedReference: linkedRef,
	})
	if err != nil {
		return tr, fmt.Errorf("can't create ledger record: %w", err)
	}

	// The movement must reach a terminal status even if the caller gave up,
	// so the atomic unit and the failure marking ignore caller cancellation
	// from here on.
	unitCtx := context.WithoutCancel(ctx)

	completed, err := s.applyWithRetry(unitCtx, tr)
	if err != nil {
		return s.markFailed(unitCtx, tr, err), err
	}

	return completed, nil
}

// GetTransaction lets a caller that lost the response re-query the outcome by
// id instead of re-submitting the movement
func (s *Service) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	return s.storage.Transaction().GetByID(ctx, id)
}

// ListTransactions serves the read side: committed ledger records only,
// newest first
func (s *Service) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	return s.storage.Transaction().List(ctx, filter)
}

func (s *Service) validate(ctx context.Context, from, to string, grossAmount decimal.Decimal, txType string) error {
	if !grossAmount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if from == to {
		return apperrors.ErrSameWallet
	}
	if !models.IsKnownType(txType) {
		return apperrors.ErrUnsupportedType
	}

	// Pre-flight existence and status checks. Racy by nature (the wallet can
	// be frozen a moment later) but they keep obviously doomed movements from
	// producing ledger records; the atomic unit re-checks under lock.
	for _, handle := range []string{from, to} {
		wallet, err := s.storage.Wallet().GetWallet(ctx, handle)
		if err != nil {
			return err
		}
		if wallet.IsFrozen() {
			return fmt.Errorf("%w: %s", apperrors.ErrWalletFrozen, handle)
		}
	}

	return nil
}

func (s *Service) applyWithRetry(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	var completed models.Transaction
	var err error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		completed, err = s.apply(ctx, tr)
		if !errors.Is(err, apperrors.ErrConcurrencyConflict) {
			return completed, err
		}

		s.logger.Warn("movement conflict, retrying",
			"transaction_id", tr.ID,
			"attempt", attempt+1,
		)
	}

	return completed, err
}

// apply runs the atomic unit: debit sender, credit receiver with the net
// amount, credit the platform wallet with the fee and flip the record to
// completed. All of it commits or none of it does.
func (s *Service) apply(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	var completed models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		handles := []string{tr.FromHandle, tr.ToHandle}
		if tr.Fee.IsPositive() {
			handles = append(handles, s.platformHandle)
		}
		if err := store.Wallet().LockWallets(ctx, handles...); err != nil {
			return err
		}

		if _, err := store.Wallet().ApplyDelta(ctx, tr.FromHandle, tr.GrossAmount.Neg()); err != nil {
			return fmt.Errorf("debit %s: %w", tr.FromHandle, err)
		}

		if _, err := store.Wallet().ApplyDelta(ctx, tr.ToHandle, tr.NetAmount()); err != nil {
			return fmt.Errorf("credit %s: %w", tr.ToHandle, err)
		}

		if tr.Fee.IsPositive() {
			if _, err := store.Wallet().ApplyDelta(ctx, s.platformHandle, tr.Fee); err != nil {
				return fmt.Errorf("credit platform fee: %w", err)
			}
		}

		var err error
		completed, err = store.Transaction().MarkCompleted(ctx, tr.ID)
		return err
	})

	return completed, err
}

// markFailed advances the record to failed so no pending record survives an
// error. Returns the record in its terminal form.
func (s *Service) markFailed(ctx context.Context, tr models.Transaction, cause error) models.Transaction {
	failed, err := s.storage.Transaction().MarkFailed(ctx, tr.ID, cause.Error())
	if err != nil {
		// The record may stay pending; loud log so operators can resolve it
		s.logger.Error("can't mark transaction failed",
			"transaction_id", tr.ID,
			"cause", cause.Error(),
			"error", err,
		)
		return tr
	}

	return failed
}
