package models

import (
	"errors"
	"time"
)

// AccountStatus is the lifecycle state of an account. ACTIVE may move to
// CLOSED; nothing moves back.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

var (
	ErrNegativeBalance = errors.New("balance cannot become negative")
	ErrNonPositive     = errors.New("amount must be positive")
	ErrAlreadyClosed   = errors.New("account already closed")
)

type Account struct {
	ID             int64         `json:"id" db:"id"`
	AccountNumber  string        `json:"account_number" db:"account_number"`
	UserID         int64         `json:"user_id" db:"user_id"`
	Status         AccountStatus `json:"status" db:"status"`
	Balance        int64         `json:"balance" db:"balance"` // smallest currency unit
	RegisteredAt   time.Time     `json:"registered_at" db:"registered_at"`
	UnregisteredAt *time.Time    `json:"unregistered_at,omitempty" db:"unregistered_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the account still accepts mutations.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Debit lowers the balance by amount. The caller must hold the account lease.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrNonPositive
	}
	if amount > a.Balance {
		return ErrNegativeBalance
	}
	a.Balance -= amount
	return nil
}

// Credit raises the balance by amount. The caller must hold the account lease.
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrNonPositive
	}
	a.Balance += amount
	return nil
}

// Close moves the account to CLOSED.
func (a *Account) Close(at time.Time) error {
	if a.Status == AccountStatusClosed {
		return ErrAlreadyClosed
	}
	a.Status = AccountStatusClosed
	a.UnregisteredAt = &at
	return nil
}
