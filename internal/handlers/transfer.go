package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/handlers/render"
	"github.com/kiplagat/pesaledger/internal/logger"
	"github.com/kiplagat/pesaledger/internal/models"
	"github.com/kiplagat/pesaledger/internal/repository"
)

type transferService interface {
	Execute(ctx context.Context, from, to string, grossAmount decimal.Decimal, txType string, linkedRef *string) (models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error)
}

type TransferHandler struct {
	transferService transferService
	logger          logger.Logger
}

type TransactionResponse struct {
	ID              int64      `json:"id"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	GrossAmount     float64    `json:"gross_amount"`
	Fee             float64    `json:"fee"`
	NetAmount       float64    `json:"net_amount"`
	Type            string     `json:"type"`
	LinkedReference *string    `json:"linked_reference,omitempty"`
	Status          string     `json:"status"`
	FailureReason   *string    `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func NewTransfer(transferService transferService, l logger.Logger) *TransferHandler {
	return &TransferHandler{transferService: transferService, logger: l}
}

func (h *TransferHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transfers", h.execute)
	mux.HandleFunc("GET /transfers/{id}", h.get)
	mux.HandleFunc("GET /transfers", h.list)

	return mux
}

func (h *TransferHandler) execute(w http.ResponseWriter, r *http.Request) {
	type ExecuteRequest struct {
		From            string          `json:"from" validate:"required,msisdn"`
		To              string          `json:"to" validate:"required,msisdn"`
		Amount          decimal.Decimal `json:"amount" validate:"required"`
		Type            string          `json:"type" validate:"required,oneof=p2p purchase bill_payment subscription publication"`
		LinkedReference *string         `json:"linked_reference"`
	}

	data, err := render.BindAndValidate[ExecuteRequest](w, r)
	if err != nil {
		return
	}

	tr, err := h.transferService.Execute(r.Context(), data.From, data.To, data.Amount, data.Type, data.LinkedReference)

	switch {
	case err == nil:
		render.JSONWithStatus(w, transactionToResponse(tr), http.StatusCreated)
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrSameWallet),
		errors.Is(err, apperrors.ErrUnsupportedType):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrWalletNotFound):
		render.ServiceError(w, "Wallet not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrWalletFrozen):
		render.ServiceError(w, "Wallet is frozen", http.StatusLocked)
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		render.ServiceError(w, "Insufficient funds", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		render.ServiceError(w, "Movement conflicted, retry the request", http.StatusConflict)
	default:
		h.logger.Error("Failed to execute movement", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransferHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		render.ServiceError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	tr, err := h.transferService.GetTransaction(r.Context(), id)

	switch {
	case err == nil:
		render.JSON(w, transactionToResponse(tr))
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		render.ServiceError(w, "Transaction not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get transaction", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransferHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
		return
	}

	trs, err := h.transferService.ListTransactions(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list transactions", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]TransactionResponse, 0, len(trs))
	for _, tr := range trs {
		response = append(response, transactionToResponse(tr))
	}

	render.JSON(w, response)
}

func filterFromQuery(r *http.Request) (repository.TransactionFilter, error) {
	q := r.URL.Query()

	filter := repository.TransactionFilter{
		Handle:     q.Get("handle"),
		FromHandle: q.Get("from"),
		ToHandle:   q.Get("to"),
		Type:       q.Get("type"),
		Status:     q.Get("status"),
	}

	if v := q.Get("owner"); v != "" {
		ownerID, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("owner must be a UUID")
		}
		filter.OwnerID = &ownerID
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("limit must be an integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("offset must be an integer")
		}
		filter.Offset = offset
	}
	if v := q.Get("created_after"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("created_after must be an RFC3339 timestamp")
		}
		filter.CreatedAfter = &at
	}
	if v := q.Get("created_before"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("created_before must be an RFC3339 timestamp")
		}
		filter.CreatedBefore = &at
	}

	return filter, nil
}

func transactionToResponse(tr models.Transaction) TransactionResponse {
	gross, _ := tr.GrossAmount.Float64()
	fee, _ := tr.Fee.Float64()
	net, _ := tr.NetAmount().Float64()

	return TransactionResponse{
		ID:              tr.ID,
		From:            tr.FromHandle,
		To:              tr.ToHandle,
		GrossAmount:     gross,
		Fee:             fee,
		NetAmount:       net,
		Type:            tr.Type,
		LinkedReference: tr.LinkedReference,
		Status:          tr.Status,
		FailureReason:   tr.FailureReason,
		CreatedAt:       tr.CreatedAt,
		CompletedAt:     tr.CompletedAt,
	}
}
