package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/models"
	"github.com/kiplagat/pesaledger/internal/repository"
)

// Service owns the wallet lifecycle: provisioning, freezing and balance
// reads. It never touches balances; only the transfer orchestrator moves
// money.
type Service struct {
	walletRepo repository.WalletRepo
}

func NewService(walletRepo repository.WalletRepo) *Service {
	return &Service{
		walletRepo: walletRepo,
	}
}

func (s *Service) Create(ctx context.Context, handle string, ownerID *uuid.UUID) (models.Wallet, error) {
	return s.walletRepo.CreateWallet(ctx, handle, ownerID)
}

// GetBalance reads the wallet directly from the store. Balance displays come
// from here and are never reconstructed from ledger records.
func (s *Service) GetBalance(ctx context.Context, handle string) (models.Wallet, error) {
	return s.walletRepo.GetWallet(ctx, handle)
}

// Freeze stops all debits and credits for the wallet. Wallets are frozen,
// not deleted.
func (s *Service) Freeze(ctx context.Context, handle string) (models.Wallet, error) {
	return s.walletRepo.SetStatus(ctx, handle, models.WalletFrozen)
}

func (s *Service) Unfreeze(ctx context.Context, handle string) (models.Wallet, error) {
	return s.walletRepo.SetStatus(ctx, handle, models.WalletActive)
}

// EnsurePlatformWallet creates the system-owned fee wallet at bootstrap if it
// does not exist yet. The platform wallet has no owner.
func (s *Service) EnsurePlatformWallet(ctx context.Context, handle string) error {
	_, err := s.walletRepo.CreateWallet(ctx, handle, nil)

	switch {
	case err == nil, errors.Is(err, apperrors.ErrWalletExists):
		return nil
	default:
		return fmt.Errorf("can't bootstrap platform wallet: %w", err)
	}
}
