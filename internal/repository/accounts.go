package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ruralpay/accounts/internal/models"
)

const accountColumns = `id, account_number, user_id, status, balance, registered_at, unregistered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a              models.Account
		unregisteredAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.AccountNumber, &a.UserID, &a.Status, &a.Balance,
		&a.RegisteredAt, &unregisteredAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if unregisteredAt.Valid {
		a.UnregisteredAt = &unregisteredAt.Time
	}
	return &a, nil
}

// FindAccountByNumber locks the row when called inside WithinTx.
func (s *Store) FindAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	if _, inTx := ctx.Value(txKey{}).(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}

	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", accountNumber, mapError(err))
	}
	return a, nil
}

// SaveAccount writes the mutable columns of an existing account.
func (s *Store) SaveAccount(ctx context.Context, account *models.Account) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE accounts SET status = $1, balance = $2, unregistered_at = $3, updated_at = $4 WHERE id = $5`,
		account.Status, account.Balance, account.UnregisteredAt, account.UpdatedAt, account.ID,
	)
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.AccountNumber, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.AccountNumber, err)
	}
	if n == 0 {
		return fmt.Errorf("save account %s: %w", account.AccountNumber, ErrNotFound)
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	err := s.conn(ctx).QueryRowContext(ctx,
		`INSERT INTO accounts (account_number, user_id, status, balance, registered_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		account.AccountNumber, account.UserID, account.Status, account.Balance,
		account.RegisteredAt, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("create account %s: %w", account.AccountNumber, mapError(err))
	}
	return nil
}

func (s *Store) CountAccountsByUserID(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts of user %d: %w", userID, err)
	}
	return n, nil
}

// FindLatestAccount returns the most recently opened account of any user.
func (s *Store) FindLatestAccount(ctx context.Context) (*models.Account, error) {
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id DESC LIMIT 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("find latest account: %w", mapError(err))
	}
	return a, nil
}

func (s *Store) FindAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts of user %d: %w", userID, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts of user %d: %w", userID, err)
	}
	return accounts, nil
}
