package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/accounts/internal/models"
)

// NewTransactionID returns a 32 character hex identifier.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TransactionRecorder builds and persists ledger entries.
type TransactionRecorder struct {
	accounts AccountStore
	ledger   LedgerStore
	now      func() time.Time
	newID    func() string
}

func NewTransactionRecorder(accounts AccountStore, ledger LedgerStore) *TransactionRecorder {
	return &TransactionRecorder{
		accounts: accounts,
		ledger:   ledger,
		now:      time.Now,
		newID:    NewTransactionID,
	}
}

// RecordSuccess writes a SUCCESS entry. snapshot is the balance after the
// mutation. The caller holds the account lease.
func (r *TransactionRecorder) RecordSuccess(ctx context.Context, kind models.TransactionKind, account *models.Account, amount, snapshot int64) (*models.Transaction, error) {
	return r.save(ctx, kind, models.OutcomeSuccess, account, amount, snapshot)
}

// RecordFailure writes a FAILURE entry for a rejected attempt. It runs
// without the account lease, so the snapshot is the balance observed now,
// not necessarily the one the rejected attempt saw.
func (r *TransactionRecorder) RecordFailure(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64) (*models.Transaction, error) {
	account, err := r.accounts.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, lookupError("find account", err, ErrAccountNotFound)
	}
	return r.save(ctx, kind, models.OutcomeFailure, account, amount, account.Balance)
}

func (r *TransactionRecorder) save(ctx context.Context, kind models.TransactionKind, outcome models.TransactionOutcome, account *models.Account, amount, snapshot int64) (*models.Transaction, error) {
	tx := &models.Transaction{
		TransactionID:   r.newID(),
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Kind:            kind,
		Outcome:         outcome,
		Amount:          amount,
		BalanceSnapshot: snapshot,
		TransactedAt:    r.now(),
	}

	if err := r.ledger.SaveTransaction(ctx, tx); err != nil {
		return nil, storeFailure("save transaction", err)
	}
	return tx, nil
}
