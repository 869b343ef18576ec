package services

import (
	"context"
	"time"

	"github.com/ruralpay/accounts/internal/audit"
	"github.com/ruralpay/accounts/internal/lock"
	"github.com/ruralpay/accounts/internal/logging"
	"github.com/ruralpay/accounts/internal/metrics"
	"github.com/ruralpay/accounts/internal/models"
	"go.uber.org/zap"
)

// BalanceMutator is the part of BalanceService the orchestration needs.
type BalanceMutator interface {
	Debit(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error)
	Credit(ctx context.Context, priorTransactionID, accountNumber string, amount int64) (*models.Transaction, error)
	Lookup(ctx context.Context, transactionID string) (*models.Transaction, error)
}

type FailureRecorder interface {
	RecordFailure(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64) (*models.Transaction, error)
}

// TransactionService serializes mutations per account and records rejected
// attempts. The FAILURE entry is written after the lease is released.
type TransactionService struct {
	locker     lock.Locker
	balance    BalanceMutator
	recorder   FailureRecorder
	audit      *audit.Logger
	metrics    metrics.Collector
	debitDelay time.Duration
	logger     *logging.Logger
}

type TransactionOption func(*TransactionService)

// WithDebitDelay pauses inside the critical section before each debit.
func WithDebitDelay(d time.Duration) TransactionOption {
	return func(s *TransactionService) { s.debitDelay = d }
}

func WithMetrics(c metrics.Collector) TransactionOption {
	return func(s *TransactionService) {
		if c != nil {
			s.metrics = c
		}
	}
}

func WithAuditLogger(a *audit.Logger) TransactionOption {
	return func(s *TransactionService) {
		if a != nil {
			s.audit = a
		}
	}
}

func NewTransactionService(locker lock.Locker, balance BalanceMutator, recorder FailureRecorder, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		locker:   locker,
		balance:  balance,
		recorder: recorder,
		audit:    audit.NewLogger(nil),
		metrics:  metrics.NoOpCollector{},
		logger:   logging.L().Named("transactions"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseBalance debits amount from the user's account.
func (s *TransactionService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 || accountNumber == "" {
		return nil, ErrInvalidRequest
	}

	start := time.Now()
	entry, err := lock.Guard(ctx, s.locker, lock.AccountKey(accountNumber), func(ctx context.Context) (*models.Transaction, error) {
		if s.debitDelay > 0 {
			time.Sleep(s.debitDelay)
		}
		return s.balance.Debit(ctx, userID, accountNumber, amount)
	})

	return s.complete(ctx, models.KindDebit, accountNumber, amount, start, entry, err)
}

// CancelBalance credits back a prior transaction in full.
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 || accountNumber == "" || transactionID == "" {
		return nil, ErrInvalidRequest
	}

	start := time.Now()
	entry, err := lock.Guard(ctx, s.locker, lock.AccountKey(accountNumber), func(ctx context.Context) (*models.Transaction, error) {
		return s.balance.Credit(ctx, transactionID, accountNumber, amount)
	})

	return s.complete(ctx, models.KindCredit, accountNumber, amount, start, entry, err)
}

// QueryTransaction returns a ledger entry. It takes no lease.
func (s *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if transactionID == "" {
		return nil, ErrInvalidRequest
	}
	return s.balance.Lookup(ctx, transactionID)
}

// complete runs after the lease has been released.
func (s *TransactionService) complete(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64, start time.Time, entry *models.Transaction, err error) (*models.Transaction, error) {
	if err == nil {
		s.metrics.RecordMutation(string(kind), string(models.OutcomeSuccess), time.Since(start))
		s.audit.LogMutation(string(kind), entry.TransactionID, accountNumber, amount, audit.StatusSuccess)
		return entry, nil
	}

	s.metrics.RecordMutation(string(kind), string(models.OutcomeFailure), time.Since(start))

	if !IsBusinessError(err) {
		s.logger.Error("mutation failed",
			zap.String("transaction_type", string(kind)),
			zap.String("account_number", accountNumber),
			zap.Error(err),
		)
		s.audit.LogError(string(kind), accountNumber, amount, err)
		return nil, err
	}

	s.recordFailure(context.WithoutCancel(ctx), kind, accountNumber, amount, err)
	return nil, err
}

func (s *TransactionService) recordFailure(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64, cause error) {
	failed, err := s.recorder.RecordFailure(ctx, kind, accountNumber, amount)
	s.metrics.RecordFailureEntry(string(kind), err == nil)
	if err != nil {
		s.logger.Warn("failure entry not recorded",
			zap.String("transaction_type", string(kind)),
			zap.String("account_number", accountNumber),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		s.audit.LogError("record_failure", accountNumber, amount, err)
		return
	}

	s.audit.LogMutation(string(kind), failed.TransactionID, accountNumber, amount, audit.StatusFailed)
}
