package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/accounts/internal/logging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InitRedis connects the client shared by the lock backend and the ledger
// cache. The lease table lives in Redis, so a failed ping is fatal to the
// caller rather than silently ignored.
func InitRedis(ctx context.Context) (*redis.Client, error) {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logging.L().Info("redis connection established", zap.String("addr", addr))
	return rdb, nil
}
