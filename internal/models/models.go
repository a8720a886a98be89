package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Company   string    `json:"company"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// StatementAccount is one reconciled order row on a customer's statement
// of accounts. It is the persisted form of a domain.Result.
type StatementAccount struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	OrderID         string          `json:"order_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	PaymentsTotal   decimal.Decimal `json:"payments_total"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	PaymentStatus   string          `json:"payment_status"`
	ExternalStatus  string          `json:"external_status"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	PastDue         bool            `json:"past_due"`
	BalanceMismatch bool            `json:"balance_mismatch"`
	SyncedAt        time.Time       `json:"synced_at"`
}

// SyncRun records one full statement synchronization pass.
type SyncRun struct {
	ID             uuid.UUID  `json:"id"`
	Status         string     `json:"status"` // "running", "completed", "failed"
	CustomersSeen  int        `json:"customers_seen"`
	OrdersSeen     int        `json:"orders_seen"`
	MismatchCount  int        `json:"mismatch_count"`
	FailureCount   int        `json:"failure_count"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	FailureMessage string     `json:"failure_message,omitempty"`
}

const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
)

// Statement is the customer-facing aggregate built from statement rows.
type Statement struct {
	Customer     Customer           `json:"customer"`
	Lines        []StatementAccount `json:"lines"`
	Balance      decimal.Decimal    `json:"balance"`
	PastDueTotal decimal.Decimal    `json:"past_due_total"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// HasBalance reports whether the customer owes anything; customers with a
// zero or credit balance do not receive a statement.
func (s Statement) HasBalance() bool {
	return s.Balance.IsPositive()
}
