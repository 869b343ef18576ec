package services

import (
	"time"

	"github.com/ruralpay/accounts/internal/models"
)

// ReversalWindow is how far back a DEBIT may still be cancelled.
type ReversalWindow struct {
	Years    int
	Duration time.Duration
}

func DefaultReversalWindow() ReversalWindow {
	return ReversalWindow{Years: 1}
}

// Cutoff is the oldest transaction time still inside the window.
func (w ReversalWindow) Cutoff(now time.Time) time.Time {
	return now.AddDate(-w.Years, 0, 0).Add(-w.Duration)
}

// Expired reports whether a transaction made at transactedAt is strictly
// older than the window. A transaction exactly at the cutoff is allowed.
func (w ReversalWindow) Expired(transactedAt, now time.Time) bool {
	return transactedAt.Before(w.Cutoff(now))
}

// ValidateDebit checks, in order: ownership, open status, sufficient balance.
func ValidateDebit(user *models.AccountUser, account *models.Account, amount int64) error {
	if account.UserID != user.ID {
		return ErrOwnerMismatch
	}
	if !account.IsActive() {
		return ErrAccountClosed
	}
	if amount > account.Balance {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks, in order: the prior transaction belongs to the
// account, the amount equals the original, the original is inside window.
func ValidateCredit(prior *models.Transaction, account *models.Account, amount int64, now time.Time, window ReversalWindow) error {
	if prior.AccountNumber != account.AccountNumber {
		return ErrTransactionAccountMismatch
	}
	if prior.Amount != amount {
		return ErrPartialReversalNotAllowed
	}
	if window.Expired(prior.TransactedAt, now) {
		return ErrReversalWindowExpired
	}
	return nil
}
