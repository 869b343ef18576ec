package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	pc := NewPrometheusCollector("accounts")
	reg := prometheus.NewRegistry()
	require.NoError(t, pc.Register(reg))

	t.Run("mutations", func(t *testing.T) {
		pc.RecordMutation("DEBIT", "SUCCESS", 10*time.Millisecond)
		pc.RecordMutation("DEBIT", "SUCCESS", 20*time.Millisecond)
		pc.RecordMutation("DEBIT", "FAILURE", 5*time.Millisecond)

		assert.Equal(t, 2.0, testutil.ToFloat64(pc.mutations.WithLabelValues("DEBIT", "SUCCESS")))
		assert.Equal(t, 1.0, testutil.ToFloat64(pc.mutations.WithLabelValues("DEBIT", "FAILURE")))
	})

	t.Run("failure entries", func(t *testing.T) {
		pc.RecordFailureEntry("CREDIT", true)
		pc.RecordFailureEntry("CREDIT", false)

		assert.Equal(t, 1.0, testutil.ToFloat64(pc.failureEntries.WithLabelValues("CREDIT", "true")))
		assert.Equal(t, 1.0, testutil.ToFloat64(pc.failureEntries.WithLabelValues("CREDIT", "false")))
	})

	t.Run("lock", func(t *testing.T) {
		pc.RecordLockAcquire(true, time.Millisecond)
		pc.RecordLockAcquire(false, time.Second)
		pc.RecordLockRelease(true, 3*time.Second)

		assert.Equal(t, 1.0, testutil.ToFloat64(pc.lockAcquires.WithLabelValues("true")))
		assert.Equal(t, 1.0, testutil.ToFloat64(pc.lockAcquires.WithLabelValues("false")))
		assert.Equal(t, 1.0, testutil.ToFloat64(pc.lockReleases.WithLabelValues("true")))
	})

	t.Run("double register fails", func(t *testing.T) {
		assert.Error(t, pc.Register(reg))
	})
}

func TestNoOpCollector(t *testing.T) {
	var c Collector = NoOpCollector{}

	assert.NotPanics(t, func() {
		c.RecordMutation("DEBIT", "SUCCESS", time.Second)
		c.RecordFailureEntry("DEBIT", true)
		c.RecordLockAcquire(true, 0)
		c.RecordLockRelease(true, 0)
	})
}
