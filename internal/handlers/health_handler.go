package handlers

import (
	"context"
	"net/http"

	"github.com/ruralpay/accounts/internal/database"
)

type HealthChecker interface {
	Check(ctx context.Context) database.HealthReport
}

// Health reports 200 when every dependency answers and 503 otherwise.
func Health(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}
