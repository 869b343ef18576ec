package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/ruralpay/accounts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *models.Transaction {
	return &models.Transaction{
		ID:              1,
		TransactionID:   "0123456789abcdef0123456789abcdef",
		AccountID:       7,
		AccountNumber:   "ACC1",
		Kind:            models.KindDebit,
		Outcome:         models.OutcomeSuccess,
		Amount:          3000,
		BalanceSnapshot: 7000,
		TransactedAt:    time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestLedgerCache(t *testing.T) {
	ctx := context.Background()
	entry := sampleEntry()
	key := "ledger:tx:" + entry.TransactionID
	payload, err := json.Marshal(entry)
	require.NoError(t, err)

	t.Run("miss", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewLedgerCache(db, time.Hour)

		mock.ExpectGet(key).RedisNil()

		got, ok, err := cache.Get(ctx, entry.TransactionID)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewLedgerCache(db, time.Hour)

		mock.ExpectGet(key).SetVal(string(payload))

		got, ok, err := cache.Get(ctx, entry.TransactionID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, entry, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewLedgerCache(db, time.Hour)

		mock.ExpectGet(key).SetVal("{not json")

		_, ok, err := cache.Get(ctx, entry.TransactionID)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("set with ttl", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewLedgerCache(db, time.Hour)

		mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

		assert.NoError(t, cache.Set(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewLedgerCache(db, time.Hour)

		mock.ExpectSet(key, payload, time.Hour).SetErr(errors.New("READONLY"))

		assert.Error(t, cache.Set(ctx, entry))
	})
}
