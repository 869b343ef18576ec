package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ruralpay/accounts/internal/lock"
	"github.com/ruralpay/accounts/internal/logging"
	"github.com/ruralpay/accounts/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576 // 1 MB

const (
	codeLockUnavailable = "LOCK_UNAVAILABLE"
	codeInternal        = "INTERNAL_SERVER_ERROR"
	codeForbidden       = "FORBIDDEN"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	ErrorCode    string            `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	Details      map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// decodeJSON reads exactly one JSON object into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.New("Invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("Request body must only contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, code, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{ErrorCode: code, ErrorMessage: message}

	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string, len(fieldErrs))
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	writeJSON(w, statusCode, errorResp)
}

func sendBadRequest(w http.ResponseWriter, message string, validationErr error) {
	SendErrorResponse(w, string(services.CodeInvalidRequest), message, http.StatusBadRequest, validationErr)
}

// statusFor maps a business error code to an HTTP status.
func statusFor(code services.ErrorCode) int {
	switch code {
	case services.CodeUserNotFound, services.CodeAccountNotFound, services.CodeTransactionNotFound:
		return http.StatusNotFound
	case services.CodeOwnerMismatch:
		return http.StatusForbidden
	case services.CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeError translates a service error. Infrastructure details are logged,
// never returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var accountErr *services.AccountError
	if errors.As(err, &accountErr) {
		SendErrorResponse(w, string(accountErr.Code), accountErr.Message, statusFor(accountErr.Code), nil)
		return
	}

	logger := logging.L().Named("http")
	if errors.Is(err, lock.ErrLockUnavailable) {
		logger.Warn("lock unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Retry-After", "1")
		SendErrorResponse(w, codeLockUnavailable, "The account is busy, please retry", http.StatusServiceUnavailable, nil)
		return
	}

	logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	SendErrorResponse(w, codeInternal, "Internal server error", http.StatusInternalServerError, nil)
}
