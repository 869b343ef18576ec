// Package audit writes one structured event per ledger-affecting operation.
package audit

import (
	"time"

	"github.com/ruralpay/accounts/internal/logging"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	Timestamp     time.Time         `json:"timestamp"`
	EventType     string            `json:"event_type"`
	TransactionID string            `json:"transaction_id,omitempty"`
	AccountNumber string            `json:"account_number,omitempty"`
	Amount        int64             `json:"amount,omitempty"`
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
}

type Logger struct {
	logger *logging.Logger
	now    func() time.Time
}

// NewLogger writes audit events to logger. A nil logger means the global one.
func NewLogger(logger *logging.Logger) *Logger {
	if logger == nil {
		logger = logging.L()
	}
	return &Logger{logger: logger.Named("audit"), now: time.Now}
}

// LogMutation records the outcome of a debit or credit attempt.
func (a *Logger) LogMutation(kind, transactionID, accountNumber string, amount int64, status string) {
	a.log(Event{
		EventType:     kind,
		TransactionID: transactionID,
		AccountNumber: accountNumber,
		Amount:        amount,
		Status:        status,
	})
}

func (a *Logger) LogError(operation, accountNumber string, amount int64, err error) {
	details := map[string]string{"operation": operation}
	if err != nil {
		details["error"] = err.Error()
	}
	a.log(Event{
		EventType:     "ERROR",
		AccountNumber: accountNumber,
		Amount:        amount,
		Status:        StatusFailed,
		Details:       details,
	})
}

// LogOperation records account lifecycle changes such as open and close.
func (a *Logger) LogOperation(accountNumber, operation, details string) {
	a.log(Event{
		EventType:     operation,
		AccountNumber: accountNumber,
		Status:        StatusSuccess,
		Details:       map[string]string{"details": details},
	})
}

func (a *Logger) log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = a.now()
	}

	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("status", event.Status),
	}
	if event.TransactionID != "" {
		fields = append(fields, zap.String("transaction_id", event.TransactionID))
	}
	if event.AccountNumber != "" {
		fields = append(fields, zap.String("account_number", event.AccountNumber))
	}
	if event.Amount != 0 {
		fields = append(fields, zap.Int64("amount", event.Amount))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	a.logger.Info("AUDIT", fields...)
}
