package services

import (
	"context"

	"github.com/ruralpay/accounts/internal/models"
)

// Not-found results are reported as repository.ErrNotFound.

type UserStore interface {
	FindUserByID(ctx context.Context, id int64) (*models.AccountUser, error)
}

type AccountStore interface {
	FindAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
}

// LedgerStore persists immutable ledger entries.
type LedgerStore interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error)
}

// Transactor runs fn in one database transaction. Store calls made with the
// ctx passed to fn join it. fn's error is returned unchanged after rollback.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRegistry covers account opening and listing.
type AccountRegistry interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	CountAccountsByUserID(ctx context.Context, userID int64) (int, error)
	FindLatestAccount(ctx context.Context) (*models.Account, error)
	FindAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error)
}

type Store interface {
	UserStore
	AccountStore
	LedgerStore
	Transactor
	AccountRegistry
}
