package services

import (
	"context"
	"time"

	"github.com/ruralpay/accounts/internal/logging"
	"github.com/ruralpay/accounts/internal/models"
	"go.uber.org/zap"
)

// BalanceService applies validated debits and credits. Debit and Credit
// must run under the account's lease; they write only SUCCESS entries.
type BalanceService struct {
	store    Store
	recorder *TransactionRecorder
	cache    *LedgerCache
	window   ReversalWindow
	now      func() time.Time
	logger   *logging.Logger
}

// NewBalanceService creates the engine. cache may be nil.
func NewBalanceService(store Store, recorder *TransactionRecorder, cache *LedgerCache, window ReversalWindow) *BalanceService {
	return &BalanceService{
		store:    store,
		recorder: recorder,
		cache:    cache,
		window:   window,
		now:      time.Now,
		logger:   logging.L().Named("balance"),
	}
}

// Debit uses amount from the user's account.
func (s *BalanceService) Debit(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	var entry *models.Transaction

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.store.FindUserByID(ctx, userID)
		if err != nil {
			return lookupError("find user", err, ErrUserNotFound)
		}
		account, err := s.store.FindAccountByNumber(ctx, accountNumber)
		if err != nil {
			return lookupError("find account", err, ErrAccountNotFound)
		}

		if err := ValidateDebit(user, account, amount); err != nil {
			return err
		}
		if err := account.Debit(amount); err != nil {
			return ErrInsufficientBalance
		}

		account.UpdatedAt = s.now()
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return storeFailure("save account", err)
		}

		entry, err = s.recorder.RecordSuccess(ctx, models.KindDebit, account, amount, account.Balance)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("debit applied",
		zap.String("transaction_id", entry.TransactionID),
		zap.String("account_number", accountNumber),
		zap.Int64("amount", amount),
		zap.Int64("balance", entry.BalanceSnapshot),
	)
	return entry, nil
}

// Credit cancels the prior transaction by returning its full amount.
func (s *BalanceService) Credit(ctx context.Context, priorTransactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	var entry *models.Transaction

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.store.FindAccountByNumber(ctx, accountNumber)
		if err != nil {
			return lookupError("find account", err, ErrAccountNotFound)
		}
		prior, err := s.store.FindTransactionByID(ctx, priorTransactionID)
		if err != nil {
			return lookupError("find transaction", err, ErrTransactionNotFound)
		}

		now := s.now()
		if err := ValidateCredit(prior, account, amount, now, s.window); err != nil {
			return err
		}
		if err := account.Credit(amount); err != nil {
			return ErrInvalidRequest
		}

		account.UpdatedAt = now
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return storeFailure("save account", err)
		}

		entry, err = s.recorder.RecordSuccess(ctx, models.KindCredit, account, amount, account.Balance)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("credit applied",
		zap.String("transaction_id", entry.TransactionID),
		zap.String("cancelled_transaction_id", priorTransactionID),
		zap.String("account_number", accountNumber),
		zap.Int64("amount", amount),
	)
	return entry, nil
}

// Lookup returns a ledger entry without taking any lease. Cache errors are
// logged and fall through to the store.
func (s *BalanceService) Lookup(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if s.cache != nil {
		tx, ok, err := s.cache.Get(ctx, transactionID)
		if err != nil {
			s.logger.Warn("ledger cache read failed", zap.String("transaction_id", transactionID), zap.Error(err))
		} else if ok {
			return tx, nil
		}
	}

	tx, err := s.store.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, lookupError("find transaction", err, ErrTransactionNotFound)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tx); err != nil {
			s.logger.Warn("ledger cache write failed", zap.String("transaction_id", transactionID), zap.Error(err))
		}
	}
	return tx, nil
}
