package repository

import (
	"context"
	"fmt"

	"github.com/ruralpay/accounts/internal/models"
)

// SaveTransaction inserts a ledger entry and fills in ID and CreatedAt.
// Entries are never updated.
func (s *Store) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	err := s.conn(ctx).QueryRowContext(ctx,
		`INSERT INTO transactions (transaction_id, account_id, transaction_type, transaction_result_type, amount, balance_snapshot, transacted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		tx.TransactionID, tx.AccountID, tx.Kind, tx.Outcome, tx.Amount, tx.BalanceSnapshot, tx.TransactedAt,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.TransactionID, mapError(err))
	}
	return nil
}

func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT t.id, t.transaction_id, t.account_id, a.account_number, t.transaction_type,
		        t.transaction_result_type, t.amount, t.balance_snapshot, t.transacted_at, t.created_at
		 FROM transactions t JOIN accounts a ON a.id = t.account_id
		 WHERE t.transaction_id = $1`, transactionID,
	).Scan(&tx.ID, &tx.TransactionID, &tx.AccountID, &tx.AccountNumber, &tx.Kind,
		&tx.Outcome, &tx.Amount, &tx.BalanceSnapshot, &tx.TransactedAt, &tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", transactionID, mapError(err))
	}
	return &tx, nil
}
