package lock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryLocker serializes goroutines of a single process. Waiters on a key
// are served in arrival order.
type MemoryLocker struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates an in-process locker. timeout caps Acquire; zero
// waits for ctx only.
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots:   make(map[string]*slot),
		timeout: timeout,
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, ErrEmptyKey)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, err)
	}

	s := m.ref(key)
	select {
	case s.sem <- struct{}{}:
		return &Lease{Key: key, AcquiredAt: time.Now(), handle: s}, nil
	case <-ctx.Done():
		m.unref(key)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, ctx.Err())
	}
}

func (m *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return ErrNilLease
	}
	s, ok := lease.handle.(*slot)
	if !ok {
		return ErrForeignLease
	}
	if !lease.markReleased() {
		return ErrLockNotHeld
	}

	<-s.sem
	m.unref(lease.Key)
	return nil
}

func (m *MemoryLocker) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *MemoryLocker) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}
