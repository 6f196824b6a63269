package apperrors

import (
	"errors"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletFrozen   = errors.New("wallet is frozen")

	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSameWallet        = errors.New("from and to wallet must differ")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnsupportedType   = errors.New("unsupported transaction type")

	ErrTransactionNotFound = errors.New("transaction not found")

	// Transient. Safe to retry the whole movement from scratch,
	// never by re-applying individual steps.
	ErrConcurrencyConflict = errors.New("concurrent movement conflict")
)
