package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector with client_golang vectors.
type PrometheusCollector struct {
	mutations       *prometheus.CounterVec
	mutationLatency *prometheus.HistogramVec
	failureEntries  *prometheus.CounterVec
	lockAcquires    *prometheus.CounterVec
	lockWait        prometheus.Histogram
	lockReleases    *prometheus.CounterVec
	lockHeld        prometheus.Histogram
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_mutations_total",
				Help:      "Debit/credit attempts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		mutationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "balance_mutation_duration_seconds",
				Help:      "Time from request to result, lock wait included",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"kind"},
		),
		failureEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failure_entries_total",
				Help:      "FAILURE ledger entry writes by kind and write result",
			},
			[]string{"kind", "written"},
		),
		lockAcquires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lock_acquires_total",
				Help:      "Account lease acquisitions by result",
			},
			[]string{"acquired"},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for an account lease",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 15),
			},
		),
		lockReleases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lock_releases_total",
				Help:      "Account lease releases by result",
			},
			[]string{"released"},
		),
		lockHeld: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lock_held_seconds",
				Help:      "Time an account lease was held",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 15),
			},
		),
	}
}

// Register adds every vector to reg.
func (pc *PrometheusCollector) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.mutations,
		pc.mutationLatency,
		pc.failureEntries,
		pc.lockAcquires,
		pc.lockWait,
		pc.lockReleases,
		pc.lockHeld,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PrometheusCollector) RecordMutation(kind, outcome string, duration time.Duration) {
	pc.mutations.WithLabelValues(kind, outcome).Inc()
	pc.mutationLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordFailureEntry(kind string, success bool) {
	pc.failureEntries.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

func (pc *PrometheusCollector) RecordLockAcquire(acquired bool, wait time.Duration) {
	pc.lockAcquires.WithLabelValues(strconv.FormatBool(acquired)).Inc()
	pc.lockWait.Observe(wait.Seconds())
}

func (pc *PrometheusCollector) RecordLockRelease(success bool, held time.Duration) {
	pc.lockReleases.WithLabelValues(strconv.FormatBool(success)).Inc()
	pc.lockHeld.Observe(held.Seconds())
}
