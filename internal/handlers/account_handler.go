package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/accounts/internal/models"
)

// AccountUseCase is implemented by services.AccountService.
type AccountUseCase interface {
	CreateAccount(ctx context.Context, userID int64, initialBalance int64) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error)
	GetAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error)
}

type AccountHandler struct {
	service   AccountUseCase
	validator *ValidationHelper
}

func NewAccountHandler(service AccountUseCase) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validator: NewValidationHelper(),
	}
}

type CreateAccountRequest struct {
	UserID         int64 `json:"userId" validate:"required,gt=0"`
	InitialBalance int64 `json:"initialBalance" validate:"gte=0"`
}

type DeleteAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,gt=0"`
	AccountNumber string `json:"accountNumber" validate:"required,max=20"`
}

type AccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	Status         string     `json:"status"`
	Balance        int64      `json:"balance"`
	RegisteredAt   time.Time  `json:"registeredAt"`
	UnregisteredAt *time.Time `json:"unregisteredAt,omitempty"`
}

func toAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		UserID:         a.UserID,
		AccountNumber:  a.AccountNumber,
		Status:         string(a.Status),
		Balance:        a.Balance,
		RegisteredAt:   a.RegisteredAt,
		UnregisteredAt: a.UnregisteredAt,
	}
}

// CreateAccount handles POST /account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
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

	account, err := h.service.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// DeleteAccount handles DELETE /account.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
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

	account, err := h.service.DeleteAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// ListAccounts handles GET /account?user_id=.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		sendBadRequest(w, "user_id query parameter is required", nil)
		return
	}
	if !authorizeUser(w, r, userID) {
		return
	}

	accounts, err := h.service.GetAccountsByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, toAccountResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) Routes(r chi.Router) {
	r.Post("/account", h.CreateAccount)
	r.Delete("/account", h.DeleteAccount)
	r.Get("/account", h.ListAccounts)
}
