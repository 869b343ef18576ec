package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/accounts/internal/models"
)

const ledgerCachePrefix = "ledger:tx:"

// LedgerCache is a read-through cache for ledger entries. Entries never
// change once written, so there is no invalidation.
type LedgerCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLedgerCache(client redis.Cmdable, ttl time.Duration) *LedgerCache {
	return &LedgerCache{client: client, ttl: ttl}
}

// Get reports false on a miss.
func (c *LedgerCache) Get(ctx context.Context, transactionID string) (*models.Transaction, bool, error) {
	data, err := c.client.Get(ctx, ledgerCachePrefix+transactionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ledger cache get: %w", err)
	}

	var tx models.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, false, fmt.Errorf("ledger cache decode: %w", err)
	}
	return &tx, true, nil
}

func (c *LedgerCache) Set(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("ledger cache encode: %w", err)
	}
	if err := c.client.Set(ctx, ledgerCachePrefix+tx.TransactionID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ledger cache set: %w", err)
	}
	return nil
}
