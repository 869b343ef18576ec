package repository

import (
	"context"
	"fmt"

	"github.com/ruralpay/accounts/internal/models"
)

func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.AccountUser, error) {
	var u models.AccountUser
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM account_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, mapError(err))
	}
	return &u, nil
}
