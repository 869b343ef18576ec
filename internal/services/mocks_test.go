package services

import (
	"context"

	"github.com/ruralpay/accounts/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockStore runs WithinTx inline; transaction boundaries are covered by the
// repository tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindUserByID(ctx context.Context, id int64) (*models.AccountUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountUser), args.Error(1)
}

func (m *MockStore) FindAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the caller's mutations do not leak into later calls.
	account := *args.Get(0).(*models.Account)
	return &account, args.Error(1)
}

func (m *MockStore) SaveAccount(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStore) FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockStore) CreateAccount(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) CountAccountsByUserID(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) FindLatestAccount(ctx context.Context) (*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) FindAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

type MockBalanceMutator struct {
	mock.Mock
}

func (m *MockBalanceMutator) Debit(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	args := m.Called(ctx, userID, accountNumber, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockBalanceMutator) Credit(ctx context.Context, priorTransactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	args := m.Called(ctx, priorTransactionID, accountNumber, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockBalanceMutator) Lookup(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64) (*models.Transaction, error) {
	args := m.Called(ctx, kind, accountNumber, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}
