package services

import (
	"errors"
	"fmt"

	"github.com/ruralpay/accounts/internal/repository"
)

// ErrorCode is the stable, machine-readable identifier of a business error.
type ErrorCode string

const (
	CodeUserNotFound               ErrorCode = "USER_NOT_FOUND"
	CodeAccountNotFound            ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeTransactionNotFound        ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeOwnerMismatch              ErrorCode = "OWNER_MISMATCH"
	CodeAccountClosed              ErrorCode = "ACCOUNT_CLOSED"
	CodeInsufficientBalance        ErrorCode = "INSUFFICIENT_BALANCE"
	CodeTransactionAccountMismatch ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	CodePartialReversalNotAllowed  ErrorCode = "PARTIAL_REVERSAL_NOT_ALLOWED"
	CodeReversalWindowExpired      ErrorCode = "REVERSAL_WINDOW_EXPIRED"
	CodeMaxAccountsPerUser         ErrorCode = "MAX_ACCOUNTS_PER_USER"
	CodeBalanceNotEmpty            ErrorCode = "BALANCE_NOT_EMPTY"
	CodeInvalidRequest             ErrorCode = "INVALID_REQUEST"
)

// AccountError is a business rule or lookup failure. Values are sentinels
// and are compared with errors.Is.
type AccountError struct {
	Code    ErrorCode
	Message string
}

func (e *AccountError) Error() string {
	return e.Message
}

var (
	ErrUserNotFound               = &AccountError{CodeUserNotFound, "user not found"}
	ErrAccountNotFound            = &AccountError{CodeAccountNotFound, "account not found"}
	ErrTransactionNotFound        = &AccountError{CodeTransactionNotFound, "transaction not found"}
	ErrOwnerMismatch              = &AccountError{CodeOwnerMismatch, "account does not belong to the user"}
	ErrAccountClosed              = &AccountError{CodeAccountClosed, "account is already closed"}
	ErrInsufficientBalance        = &AccountError{CodeInsufficientBalance, "amount exceeds account balance"}
	ErrTransactionAccountMismatch = &AccountError{CodeTransactionAccountMismatch, "transaction does not belong to the account"}
	ErrPartialReversalNotAllowed  = &AccountError{CodePartialReversalNotAllowed, "only the full transaction amount can be cancelled"}
	ErrReversalWindowExpired      = &AccountError{CodeReversalWindowExpired, "transaction is too old to be cancelled"}
	ErrMaxAccountsPerUser         = &AccountError{CodeMaxAccountsPerUser, "user already owns the maximum number of accounts"}
	ErrBalanceNotEmpty            = &AccountError{CodeBalanceNotEmpty, "account with remaining balance cannot be closed"}
	ErrInvalidRequest             = &AccountError{CodeInvalidRequest, "invalid request"}
)

// ErrStoreFailure marks a persistence error. It never produces a FAILURE
// ledger entry.
var ErrStoreFailure = errors.New("store failure")

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

// lookupError maps a store not-found to the given business error.
func lookupError(op string, err error, notFound *AccountError) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return storeFailure(op, err)
}

// IsBusinessError reports whether err is a rule or lookup failure, as
// opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	var accountErr *AccountError
	return errors.As(err, &accountErr)
}

// ErrorCodeOf returns the code of a business error, or "" for anything else.
func ErrorCodeOf(err error) ErrorCode {
	var accountErr *AccountError
	if errors.As(err, &accountErr) {
		return accountErr.Code
	}
	return ""
}
