package lock

import (
	"context"
	"time"

	"github.com/ruralpay/accounts/internal/metrics"
)

type instrumentedLocker struct {
	next    Locker
	metrics metrics.Collector
}

// Instrument reports wait and hold times of next to collector.
func Instrument(next Locker, collector metrics.Collector) Locker {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &instrumentedLocker{next: next, metrics: collector}
}

func (l *instrumentedLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	start := time.Now()
	lease, err := l.next.Acquire(ctx, key)
	l.metrics.RecordLockAcquire(err == nil, time.Since(start))
	return lease, err
}

func (l *instrumentedLocker) Release(ctx context.Context, lease *Lease) error {
	err := l.next.Release(ctx, lease)
	if lease != nil {
		l.metrics.RecordLockRelease(err == nil, time.Since(lease.AcquiredAt))
	}
	return err
}
