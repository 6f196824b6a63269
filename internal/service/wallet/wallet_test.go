package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/models"
	"github.com/kiplagat/pesaledger/internal/repository"
	"github.com/kiplagat/pesaledger/internal/repository/postgres"
	"github.com/kiplagat/pesaledger/internal/testutil"
)

func TestService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withService := func(t *testing.T, fn func(s *Service, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage.Wallet()), storage)
		})
	}

	ownerID := uuid.New()

	t.Run("Create", func(t *testing.T) {
		withService(t, func(s *Service, _ repository.Storage) {
			wallet, err := s.Create(t.Context(), "254700000100", &ownerID)

			require.NoError(t, err)
			require.Equal(t, "254700000100", wallet.Handle)
			require.Equal(t, ownerID, *wallet.OwnerID)
			require.True(t, wallet.Balance.IsZero())
			require.Equal(t, models.WalletActive, wallet.Status)

			_, err = s.Create(t.Context(), "254700000100", &ownerID)
			require.ErrorIs(t, err, apperrors.ErrWalletExists)
		})
	})

	t.Run("GetBalance", func(t *testing.T) {
		withService(t, func(s *Service, _ repository.Storage) {
			_, err := s.Create(t.Context(), "254700000100", &ownerID)
			require.NoError(t, err)

			wallet, err := s.GetBalance(t.Context(), "254700000100")
			require.NoError(t, err)
			require.Equal(t, "254700000100", wallet.Handle)

			_, err = s.GetBalance(t.Context(), "254799999999")
			require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
		})
	})

	t.Run("Freeze and Unfreeze", func(t *testing.T) {
		withService(t, func(s *Service, _ repository.Storage) {
			_, err := s.Create(t.Context(), "254700000100", &ownerID)
			require.NoError(t, err)

			wallet, err := s.Freeze(t.Context(), "254700000100")
			require.NoError(t, err)
			require.Equal(t, models.WalletFrozen, wallet.Status)
			require.True(t, wallet.IsFrozen())

			wallet, err = s.Unfreeze(t.Context(), "254700000100")
			require.NoError(t, err)
			require.Equal(t, models.WalletActive, wallet.Status)

			_, err = s.Freeze(t.Context(), "254799999999")
			require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
		})
	})

	t.Run("EnsurePlatformWallet", func(t *testing.T) {
		withService(t, func(s *Service, storage repository.Storage) {
			err := s.EnsurePlatformWallet(t.Context(), "254700000001")
			require.NoError(t, err)

			wallet, err := storage.Wallet().GetWallet(t.Context(), "254700000001")
			require.NoError(t, err)
			require.Nil(t, wallet.OwnerID, "platform wallet is system-owned")

			// Bootstrap is idempotent across restarts
			err = s.EnsurePlatformWallet(t.Context(), "254700000001")
			require.NoError(t, err)
		})
	})
}
