package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

type HealthReport struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Healthy reports whether every dependency is up.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusUp
}

type HealthChecker struct {
	db      *sql.DB
	redis   redis.Cmdable
	timeout time.Duration
}

// NewHealthChecker pings db and, when set, redis.
func NewHealthChecker(db *sql.DB, rdb redis.Cmdable, timeout time.Duration) *HealthChecker {
	return &HealthChecker{db: db, redis: rdb, timeout: timeout}
}

func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report := HealthReport{Status: StatusUp, Services: map[string]string{}}

	report.Services["database"] = StatusUp
	if err := h.db.PingContext(ctx); err != nil {
		report.Services["database"] = StatusDown
		report.Status = StatusDown
	}

	if h.redis != nil {
		report.Services["redis"] = StatusUp
		if err := h.redis.Ping(ctx).Err(); err != nil {
			report.Services["redis"] = StatusDown
			report.Status = StatusDown
		}
	}

	return report
}
