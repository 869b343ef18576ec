package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"github.com/ruralpay/accounts/internal/logging"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RedisLocker grants leases with the RedLock algorithm on a shared Redis,
// so every service instance observes the same lease table. Backend calls
// go through a circuit breaker: while Redis keeps failing, Acquire fails
// fast instead of waiting out the full timeout.
type RedisLocker struct {
	rs     *redsync.Redsync
	cb     *gobreaker.CircuitBreaker
	opts   Options
	logger *logging.Logger
}

// NewRedisLocker builds a locker on top of an already connected client.
func NewRedisLocker(client redis.UniversalClient, opts Options) (*RedisLocker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := logging.L().Named("lock")

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = DefaultOptions().BreakerFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-lock",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Contention and abandoned waits say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || isContention(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("lock backend breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		cb:     cb,
		opts:   opts,
		logger: logger,
	}, nil
}

// Acquire retries one RedLock attempt at a time so the breaker sees the
// outcome of every backend round trip, not only the last one.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, ErrEmptyKey)
	}

	if l.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.AcquireTimeout)
		defer cancel()
	}

	mutex := l.rs.NewMutex(
		l.opts.KeyPrefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithDriftFactor(l.opts.DriftFactor),
	)

	var timer *time.Timer
	tries := l.opts.tries()
	for attempt := 1; ; attempt++ {
		_, err := l.cb.Execute(func() (interface{}, error) {
			return nil, l.tryLock(ctx, mutex)
		})
		if err == nil {
			l.logger.Debug("lease acquired", zap.String("lock_key", key), zap.Int("attempts", attempt))
			return &Lease{Key: key, AcquiredAt: time.Now(), handle: mutex}, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			l.logger.Warn("lock backend breaker open, lease refused", zap.String("lock_key", key))
			return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, err)
		}
		if !isContention(err) {
			l.logger.Error("lock backend failure",
				zap.String("lock_key", key),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if errors.Is(err, errAbandoned) || (tries > 0 && attempt >= tries) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, err)
		}

		if timer == nil {
			timer = time.NewTimer(l.retryDelay(attempt))
			defer timer.Stop()
		} else {
			timer.Reset(l.retryDelay(attempt))
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, ctx.Err())
		case <-timer.C:
		}
	}
}

// tryLock makes a single attempt. Failures caused by the caller's context
// ending are marked so the breaker does not count them against Redis.
func (l *RedisLocker) tryLock(ctx context.Context, mutex *redsync.Mutex) error {
	err := mutex.TryLockContext(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w: %w", errAbandoned, err)
	}
	return err
}

func (l *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return ErrNilLease
	}
	mutex, ok := lease.handle.(*redsync.Mutex)
	if !ok {
		return ErrForeignLease
	}
	if !lease.markReleased() {
		return ErrLockNotHeld
	}

	released, err := mutex.UnlockContext(ctx)
	if !released {
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLockNotHeld, lease.Key, err)
		}
		return fmt.Errorf("%w: %s", ErrLockNotHeld, lease.Key)
	}

	l.logger.Debug("lease released",
		zap.String("lock_key", lease.Key),
		zap.Duration("held", time.Since(lease.AcquiredAt)),
	)
	return nil
}

// retryDelay spreads retries over [RetryDelay/2, 3*RetryDelay/2) so
// waiters do not poll in lockstep.
func (l *RedisLocker) retryDelay(int) time.Duration {
	base := l.opts.RetryDelay
	return base/2 + rand.N(base)
}

var errAbandoned = errors.New("acquire abandoned")

// isContention reports whether err says the key is held elsewhere or the
// caller gave up, as opposed to Redis being unreachable.
func isContention(err error) bool {
	if errors.Is(err, errAbandoned) {
		return true
	}
	var backend *redsync.RedisError
	if errors.As(err, &backend) {
		return false
	}
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken
	return errors.As(err, &taken) ||
		errors.As(err, &nodeTaken) ||
		errors.Is(err, redsync.ErrFailed)
}
