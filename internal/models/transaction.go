package models

import (
	"time"
)

// TransactionKind is the direction of a balance mutation: DEBIT uses
// balance, CREDIT cancels a previous DEBIT.
type TransactionKind string

const (
	KindDebit  TransactionKind = "DEBIT"
	KindCredit TransactionKind = "CREDIT"
)

// TransactionOutcome records whether the attempt changed the balance.
type TransactionOutcome string

const (
	OutcomeSuccess TransactionOutcome = "SUCCESS"
	OutcomeFailure TransactionOutcome = "FAILURE"
)

// Transaction is an immutable ledger entry for one attempted mutation.
// BalanceSnapshot is the balance right after a SUCCESS entry, or the
// balance observed when a FAILURE entry was written.
type Transaction struct {
	ID              int64              `json:"id" db:"id"`
	TransactionID   string             `json:"transaction_id" db:"transaction_id"`
	AccountID       int64              `json:"account_id" db:"account_id"`
	AccountNumber   string             `json:"account_number" db:"account_number"`
	Kind            TransactionKind    `json:"transaction_type" db:"transaction_type"`
	Outcome         TransactionOutcome `json:"transaction_result_type" db:"transaction_result_type"`
	Amount          int64              `json:"amount" db:"amount"`
	BalanceSnapshot int64              `json:"balance_snapshot" db:"balance_snapshot"`
	TransactedAt    time.Time          `json:"transacted_at" db:"transacted_at"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
}
