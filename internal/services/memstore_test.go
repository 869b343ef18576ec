package services

import (
	"context"
	"sort"
	"sync"

	"github.com/ruralpay/accounts/internal/models"
	"github.com/ruralpay/accounts/internal/repository"
)

// memStore is a goroutine-safe Store used by the concurrency tests. It has
// no rollback: callers only write after every check passed.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]models.AccountUser
	accounts map[string]models.Account
	ledger   []models.Transaction
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]models.AccountUser),
		accounts: make(map[string]models.Account),
	}
}

func (s *memStore) addUser(u models.AccountUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) addAccount(a models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	s.accounts[a.AccountNumber] = a
}

func (s *memStore) addTransaction(tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, tx)
}

func (s *memStore) balance(accountNumber string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountNumber].Balance
}

func (s *memStore) entries() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.ledger))
	copy(out, s.ledger)
	return out
}

func (s *memStore) FindUserByID(_ context.Context, id int64) (*models.AccountUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) FindAccountByNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *memStore) SaveAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *memStore) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, *tx)
	return nil
}

func (s *memStore) FindTransactionByID(_ context.Context, transactionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.ledger {
		if tx.TransactionID == transactionID {
			return &tx, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *memStore) CountAccountsByUserID(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindLatestAccount(_ context.Context) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Account
	for _, a := range s.accounts {
		if latest == nil || a.ID > latest.ID {
			a := a
			latest = &a
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (s *memStore) FindAccountsByUserID(_ context.Context, userID int64) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
