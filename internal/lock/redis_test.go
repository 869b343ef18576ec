package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T, opts Options) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker, err := NewRedisLocker(client, opts)
	require.NoError(t, err)
	return locker, mr
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RetryDelay = 10 * time.Millisecond
	opts.AcquireTimeout = 100 * time.Millisecond
	return opts
}

func TestNewRedisLocker_Validation(t *testing.T) {
	_, err := NewRedisLocker(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNilClient)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero expiry", func(o *Options) { o.Expiry = 0 }, ErrExpiryInvalid},
		{"zero retry delay", func(o *Options) { o.RetryDelay = 0 }, ErrRetryDelayInvalid},
		{"no timeout and no tries", func(o *Options) { o.AcquireTimeout = 0; o.Tries = 0 }, ErrTriesInvalid},
		{"drift factor of one", func(o *Options) { o.DriftFactor = 1 }, ErrDriftFactorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := NewRedisLocker(client, opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	locker, mr := newTestRedisLocker(t, fastOptions())
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, AccountKey("1000000012"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:account:1000000012"))

	require.NoError(t, locker.Release(ctx, lease))
	assert.False(t, mr.Exists("lock:account:1000000012"))

	assert.ErrorIs(t, locker.Release(ctx, lease), ErrLockNotHeld)
}

func TestRedisLocker_InvalidInput(t *testing.T) {
	locker, _ := newTestRedisLocker(t, fastOptions())
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, err, ErrLockUnavailable)

	assert.ErrorIs(t, locker.Release(ctx, nil), ErrNilLease)

	memLease, err := NewMemoryLocker(time.Second).Acquire(ctx, "account:1")
	require.NoError(t, err)
	assert.ErrorIs(t, locker.Release(ctx, memLease), ErrForeignLease)
}

func TestRedisLocker_ContentionTimesOut(t *testing.T) {
	locker, _ := newTestRedisLocker(t, fastOptions())
	ctx := context.Background()

	held, err := locker.Acquire(ctx, "account:1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "account:1")
	assert.ErrorIs(t, err, ErrLockUnavailable)

	other, err := locker.Acquire(ctx, "account:2")
	require.NoError(t, err, "unrelated keys must not contend")

	require.NoError(t, locker.Release(ctx, other))
	require.NoError(t, locker.Release(ctx, held))

	again, err := locker.Acquire(ctx, "account:1")
	require.NoError(t, err)
	require.NoError(t, locker.Release(ctx, again))
}

func TestRedisLocker_SharedAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	newLocker := func() *RedisLocker {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		locker, err := NewRedisLocker(client, fastOptions())
		require.NoError(t, err)
		return locker
	}
	first, second := newLocker(), newLocker()

	lease, err := first.Acquire(ctx, "account:1")
	require.NoError(t, err)

	_, err = second.Acquire(ctx, "account:1")
	assert.ErrorIs(t, err, ErrLockUnavailable)

	require.NoError(t, first.Release(ctx, lease))

	lease, err = second.Acquire(ctx, "account:1")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx, lease))
}

func TestRedisLocker_ExpiredLease(t *testing.T) {
	opts := fastOptions()
	opts.Expiry = time.Second
	locker, mr := newTestRedisLocker(t, opts)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "account:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "account:1")
	require.NoError(t, err, "an expired lease must not block new holders")

	assert.ErrorIs(t, locker.Release(ctx, stale), ErrLockNotHeld)
	assert.True(t, mr.Exists("lock:account:1"), "stale release must not drop the new lease")

	require.NoError(t, locker.Release(ctx, fresh))
}

func TestRedisLocker_BackendDown(t *testing.T) {
	opts := fastOptions()
	opts.AcquireTimeout = 0
	opts.Tries = 1
	opts.BreakerFailures = 2
	opts.BreakerTimeout = time.Minute
	locker, mr := newTestRedisLocker(t, opts)
	ctx := context.Background()

	mr.Close()

	for i := 0; i < 2; i++ {
		_, err := locker.Acquire(ctx, "account:1")
		assert.ErrorIs(t, err, ErrLockUnavailable)
	}

	_, err := locker.Acquire(ctx, "account:1")
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestRedisLocker_BackendDownOpensBreakerWithinTimeout(t *testing.T) {
	opts := fastOptions()
	opts.BreakerFailures = 2
	opts.BreakerTimeout = time.Minute

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	locker, err := NewRedisLocker(client, opts)
	require.NoError(t, err)
	ctx := context.Background()

	mr.Close()

	_, err = locker.Acquire(ctx, "account:1")
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.Equal(t, gobreaker.StateOpen, locker.cb.State())

	start := time.Now()
	_, err = locker.Acquire(ctx, "account:2")
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Less(t, time.Since(start), opts.AcquireTimeout)
}

func TestRedisLocker_ContentionKeepsBreakerClosed(t *testing.T) {
	opts := fastOptions()
	opts.BreakerFailures = 1
	locker, _ := newTestRedisLocker(t, opts)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "account:1")
	require.NoError(t, err)
	defer func() { _ = locker.Release(ctx, lease) }()

	for i := 0; i < 3; i++ {
		_, err := locker.Acquire(ctx, "account:1")
		assert.ErrorIs(t, err, ErrLockUnavailable)
	}
	assert.Equal(t, gobreaker.StateClosed, locker.cb.State())
}
