package lock

import (
	"context"

	"github.com/ruralpay/accounts/internal/logging"
	"go.uber.org/zap"
)

// Guard runs fn while holding the lease on key. The lease is released on
// every exit path, panics included, and fn's error is returned unchanged.
// Once the lease is granted fn runs on a context that ignores the caller's
// cancellation, so an in-flight mutation always completes.
func Guard[T any](ctx context.Context, locker Locker, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	lease, err := locker.Acquire(ctx, key)
	if err != nil {
		return zero, err
	}

	runCtx := context.WithoutCancel(ctx)
	defer func() {
		if rerr := locker.Release(runCtx, lease); rerr != nil {
			logging.L().Named("lock").Warn("failed to release lease",
				zap.String("lock_key", key),
				zap.Error(rerr),
			)
		}
	}()

	return fn(runCtx)
}
