package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ruralpay/accounts/internal/audit"
	"github.com/ruralpay/accounts/internal/lock"
	"github.com/ruralpay/accounts/internal/models"
	"github.com/ruralpay/accounts/internal/repository"
)

const (
	// AccountNumberLockKey serializes account number allocation.
	AccountNumberLockKey = "account-number"
	FirstAccountNumber   = "1000000000"
	DefaultMaxAccounts   = 10
)

type AccountService struct {
	store      Store
	locker     lock.Locker
	audit      *audit.Logger
	maxPerUser int
	now        func() time.Time
}

// NewAccountService creates the service. maxPerUser <= 0 uses DefaultMaxAccounts.
func NewAccountService(store Store, locker lock.Locker, auditLogger *audit.Logger, maxPerUser int) *AccountService {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxAccounts
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(nil)
	}
	return &AccountService{
		store:      store,
		locker:     locker,
		audit:      auditLogger,
		maxPerUser: maxPerUser,
		now:        time.Now,
	}
}

// CreateAccount opens an account with the next free account number.
func (s *AccountService) CreateAccount(ctx context.Context, userID int64, initialBalance int64) (*models.Account, error) {
	if initialBalance < 0 {
		return nil, ErrInvalidRequest
	}

	account, err := lock.Guard(ctx, s.locker, AccountNumberLockKey, func(ctx context.Context) (*models.Account, error) {
		var created *models.Account
		err := s.store.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.store.FindUserByID(ctx, userID); err != nil {
				return lookupError("find user", err, ErrUserNotFound)
			}

			count, err := s.store.CountAccountsByUserID(ctx, userID)
			if err != nil {
				return storeFailure("count accounts", err)
			}
			if count >= s.maxPerUser {
				return ErrMaxAccountsPerUser
			}

			number, err := s.nextAccountNumber(ctx)
			if err != nil {
				return err
			}

			now := s.now()
			created = &models.Account{
				AccountNumber: number,
				UserID:        userID,
				Status:        models.AccountStatusActive,
				Balance:       initialBalance,
				RegisteredAt:  now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.store.CreateAccount(ctx, created); err != nil {
				return storeFailure("create account", err)
			}
			return nil
		})
		return created, err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogOperation(account.AccountNumber, "ACCOUNT_OPENED", "user "+strconv.FormatInt(userID, 10))
	return account, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	latest, err := s.store.FindLatestAccount(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return FirstAccountNumber, nil
	}
	if err != nil {
		return "", storeFailure("find latest account", err)
	}

	n, err := strconv.ParseInt(latest.AccountNumber, 10, 64)
	if err != nil {
		return "", storeFailure("parse account number", err)
	}
	return strconv.FormatInt(n+1, 10), nil
}

// DeleteAccount closes an empty account owned by the user.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error) {
	if accountNumber == "" {
		return nil, ErrInvalidRequest
	}

	account, err := lock.Guard(ctx, s.locker, lock.AccountKey(accountNumber), func(ctx context.Context) (*models.Account, error) {
		user, err := s.store.FindUserByID(ctx, userID)
		if err != nil {
			return nil, lookupError("find user", err, ErrUserNotFound)
		}
		account, err := s.store.FindAccountByNumber(ctx, accountNumber)
		if err != nil {
			return nil, lookupError("find account", err, ErrAccountNotFound)
		}

		if account.UserID != user.ID {
			return nil, ErrOwnerMismatch
		}
		if !account.IsActive() {
			return nil, ErrAccountClosed
		}
		if account.Balance > 0 {
			return nil, ErrBalanceNotEmpty
		}

		now := s.now()
		if err := account.Close(now); err != nil {
			return nil, ErrAccountClosed
		}
		account.UpdatedAt = now
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return nil, storeFailure("save account", err)
		}
		return account, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogOperation(account.AccountNumber, "ACCOUNT_CLOSED", "user "+strconv.FormatInt(userID, 10))
	return account, nil
}

func (s *AccountService) GetAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, lookupError("find user", err, ErrUserNotFound)
	}

	accounts, err := s.store.FindAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, storeFailure("list accounts", err)
	}
	return accounts, nil
}
