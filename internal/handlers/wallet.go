package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/handlers/render"
	"github.com/kiplagat/pesaledger/internal/logger"
	"github.com/kiplagat/pesaledger/internal/models"
)

type walletService interface {
	Create(ctx context.Context, handle string, ownerID *uuid.UUID) (models.Wallet, error)
	GetBalance(ctx context.Context, handle string) (models.Wallet, error)
	Freeze(ctx context.Context, handle string) (models.Wallet, error)
	Unfreeze(ctx context.Context, handle string) (models.Wallet, error)
}

type WalletHandler struct {
	walletService walletService
	logger        logger.Logger
}

type WalletResponse struct {
	Handle    string     `json:"handle"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Balance   float64    `json:"balance"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewWallet(walletService walletService, l logger.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, logger: l}
}

func (h *WalletHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wallets", h.create)
	mux.HandleFunc("GET /wallets/{handle}", h.balance)
	mux.HandleFunc("POST /wallets/{handle}/freeze", h.freeze)
	mux.HandleFunc("POST /wallets/{handle}/unfreeze", h.unfreeze)

	return mux
}

func (h *WalletHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateRequest struct {
		Handle  string `json:"handle" validate:"required,msisdn"`
		OwnerID string `json:"owner_id" validate:"required,uuid"`
	}

	data, err := render.BindAndValidate[CreateRequest](w, r)
	if err != nil {
		return
	}

	ownerID, err := uuid.Parse(data.OwnerID)
	if err != nil {
		render.ServiceError(w, "Invalid owner id", http.StatusBadRequest)
		return
	}

	wallet, err := h.walletService.Create(r.Context(), data.Handle, &ownerID)

	switch {
	case err == nil:
		render.JSONWithStatus(w, walletToResponse(wallet), http.StatusCreated)
	case errors.Is(err, apperrors.ErrWalletExists):
		render.ServiceError(w, "Wallet already exists", http.StatusConflict)
	default:
		h.logger.Error("Failed to create wallet", "handle", data.Handle, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *WalletHandler) balance(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletService.GetBalance(r.Context(), r.PathValue("handle"))

	switch {
	case err == nil:
		render.JSON(w, walletToResponse(wallet))
	case errors.Is(err, apperrors.ErrWalletNotFound):
		render.ServiceError(w, "Wallet not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get balance", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *WalletHandler) freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.walletService.Freeze)
}

func (h *WalletHandler) unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.walletService.Unfreeze)
}

func (h *WalletHandler) setStatus(w http.ResponseWriter, r *http.Request, change func(context.Context, string) (models.Wallet, error)) {
	wallet, err := change(r.Context(), r.PathValue("handle"))

	switch {
	case err == nil:
		render.JSON(w, walletToResponse(wallet))
	case errors.Is(err, apperrors.ErrWalletNotFound):
		render.ServiceError(w, "Wallet not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to change wallet status", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func walletToResponse(wallet models.Wallet) WalletResponse {
	balance, _ := wallet.Balance.Float64()

	return WalletResponse{
		Handle:    wallet.Handle,
		OwnerID:   wallet.OwnerID,
		Balance:   balance,
		Status:    wallet.Status,
		CreatedAt: wallet.CreatedAt,
	}
}
