package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/accounts/internal/models"
)

// TransactionUseCase is implemented by services.TransactionService.
type TransactionUseCase interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error)
	QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
}

type TransactionHandler struct {
	service   TransactionUseCase
	validator *ValidationHelper
}

func NewTransactionHandler(service TransactionUseCase) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		validator: NewValidationHelper(),
	}
}

type UseBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,gt=0"`
	AccountNumber string `json:"accountNumber" validate:"required,max=20"`
	Amount        int64  `json:"amount" validate:"required,gt=0,lte=1000000000"`
}

type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required,max=32"`
	AccountNumber string `json:"accountNumber" validate:"required,max=20"`
	Amount        int64  `json:"amount" validate:"required,gt=0,lte=1000000000"`
}

type TransactionResponse struct {
	TransactionID         string    `json:"transactionId"`
	AccountNumber         string    `json:"accountNumber"`
	TransactionType       string    `json:"transactionType"`
	TransactionResultType string    `json:"transactionResultType"`
	Amount                int64     `json:"amount"`
	BalanceSnapshot       int64     `json:"balanceSnapshot"`
	TransactedAt          time.Time `json:"transactedAt"`
}

func toTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:         tx.TransactionID,
		AccountNumber:         tx.AccountNumber,
		TransactionType:       string(tx.Kind),
		TransactionResultType: string(tx.Outcome),
		Amount:                tx.Amount,
		BalanceSnapshot:       tx.BalanceSnapshot,
		TransactedAt:          tx.TransactedAt,
	}
}

// UseBalance handles POST /transaction/use.
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req UseBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendBadRequest(w, err.Error(), nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		sendBadRequest(w, "Validation failed", err)
		return
	}
	if !authorizeUser(w, r, req.UserID) {
		return
	}

	tx, err := h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// CancelBalance handles POST /transaction/cancel.
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req CancelBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendBadRequest(w, err.Error(), nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		sendBadRequest(w, "Validation failed", err)
		return
	}

	tx, err := h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// GetTransaction handles GET /transaction/{transactionId}.
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" || len(transactionID) > 32 {
		sendBadRequest(w, "Invalid transaction id", nil)
		return
	}

	tx, err := h.service.QueryTransaction(r.Context(), transactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *TransactionHandler) Routes(r chi.Router) {
	r.Post("/transaction/use", h.UseBalance)
	r.Post("/transaction/cancel", h.CancelBalance)
	r.Get("/transaction/{transactionId}", h.GetTransaction)
}
