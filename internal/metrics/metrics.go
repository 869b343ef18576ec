package metrics

import (
	"time"
)

// Collector receives ledger and lock measurements. Implementations export
// them to a backend; NoOpCollector is the default.
type Collector interface {
	// RecordMutation is called once per debit/credit attempt.
	RecordMutation(kind, outcome string, duration time.Duration)
	// RecordFailureEntry is called after a FAILURE ledger entry write.
	RecordFailureEntry(kind string, success bool)

	RecordLockAcquire(acquired bool, wait time.Duration)
	RecordLockRelease(success bool, held time.Duration)
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

func (NoOpCollector) RecordMutation(kind, outcome string, duration time.Duration) {}

func (NoOpCollector) RecordFailureEntry(kind string, success bool) {}

func (NoOpCollector) RecordLockAcquire(acquired bool, wait time.Duration) {}

func (NoOpCollector) RecordLockRelease(success bool, held time.Duration) {}
