// Package lock grants exclusive, time-bounded leases on string keys.
//
// RedisLocker is the production backend and is shared by every process
// that talks to the same Redis. MemoryLocker only serializes callers inside
// one process and must not be used when more than one instance is deployed.
package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrLockUnavailable is returned when a lease could not be obtained in
	// time or the lock backend could not be reached. No lease is granted.
	ErrLockUnavailable = errors.New("lock unavailable")
	// ErrLockNotHeld is returned when releasing a lease that was already
	// released or has expired.
	ErrLockNotHeld = errors.New("lock was not held or already expired")
	// ErrEmptyKey is returned, wrapped in ErrLockUnavailable, for blank
	// lock keys.
	ErrEmptyKey = errors.New("lock key cannot be empty")
	// ErrForeignLease is returned when a lease is released through a
	// locker that did not grant it.
	ErrForeignLease = errors.New("lease was not granted by this locker")
	// ErrNilLease is returned when Release is called with a nil lease.
	ErrNilLease = errors.New("lease is nil")
	// ErrNilClient is returned when a redis locker is built without a client.
	ErrNilClient = errors.New("redis client is nil")

	ErrExpiryInvalid      = errors.New("lock expiry must be greater than 0")
	ErrRetryDelayInvalid  = errors.New("lock retry delay must be greater than 0")
	ErrTriesInvalid       = errors.New("lock tries must be at least 1")
	ErrDriftFactorInvalid = errors.New("lock drift factor must be between 0 (inclusive) and 1 (exclusive)")
)

// Locker grants and releases leases. A key has at most one outstanding
// lease at any instant. Leases are not reentrant: acquiring the same key
// twice without releasing blocks until the timeout.
type Locker interface {
	// Acquire blocks until the key is free, the acquire timeout elapses or
	// ctx is done. Every failure matches ErrLockUnavailable.
	Acquire(ctx context.Context, key string) (*Lease, error)
	// Release ends the lease and hands the key to the next waiter.
	Release(ctx context.Context, lease *Lease) error
}

// Lease is the exclusive right to act on Key.
type Lease struct {
	Key        string
	AcquiredAt time.Time

	handle   any
	released atomic.Bool
}

// markReleased reports false if the lease was already released.
func (l *Lease) markReleased() bool {
	return l.released.CompareAndSwap(false, true)
}

// Options configures lease behaviour.
type Options struct {
	// KeyPrefix is prepended to every key stored in the backend.
	KeyPrefix string
	// Expiry bounds how long a lease survives a crashed holder. It must
	// exceed the longest critical section.
	Expiry time.Duration
	// RetryDelay is the mean pause between acquisition attempts.
	RetryDelay time.Duration
	// DriftFactor accounts for clock drift between Redis nodes.
	DriftFactor float64
	// AcquireTimeout caps the wait for a lease. Zero means Tries attempts.
	AcquireTimeout time.Duration
	// Tries is used only when AcquireTimeout is zero.
	Tries int
	// BreakerFailures is the number of consecutive backend failures that
	// open the circuit breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultOptions returns defaults sized for a critical section of a few
// seconds.
func DefaultOptions() Options {
	return Options{
		KeyPrefix:       "lock:",
		Expiry:          10 * time.Second,
		RetryDelay:      100 * time.Millisecond,
		DriftFactor:     0.01,
		AcquireTimeout:  10 * time.Second,
		Tries:           32,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

func (o Options) validate() error {
	if o.Expiry <= 0 {
		return ErrExpiryInvalid
	}
	if o.RetryDelay <= 0 {
		return ErrRetryDelayInvalid
	}
	if o.AcquireTimeout <= 0 && o.Tries < 1 {
		return ErrTriesInvalid
	}
	if o.DriftFactor < 0 || o.DriftFactor >= 1 {
		return ErrDriftFactorInvalid
	}
	return nil
}

// tries is the attempt budget. Zero means keep trying until the acquire
// timeout ends the wait.
func (o Options) tries() int {
	if o.AcquireTimeout > 0 {
		return 0
	}
	return o.Tries
}

// AccountKey is the lock key for an account number.
func AccountKey(accountNumber string) string {
	return "account:" + accountNumber
}
