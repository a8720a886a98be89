package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus classifies an order's balance against its recorded payments.
type PaymentStatus string

// ExternalStatus classifies the accounting ledger's view of the same order.
type ExternalStatus string

const (
	StatusFree     PaymentStatus = "free"
	StatusPaid     PaymentStatus = "paid"
	StatusOverpaid PaymentStatus = "overpaid"
	StatusPartial  PaymentStatus = "partial"
	StatusUnpaid   PaymentStatus = "unpaid"

	ExternalPaid        ExternalStatus = "paid"
	ExternalFree        ExternalStatus = "free"
	ExternalPartial     ExternalStatus = "partial"
	ExternalOverpaid    ExternalStatus = "overpaid"
	ExternalUnknown     ExternalStatus = "unknown"
	ExternalNotExported ExternalStatus = "not_exported"
)

// Order is one invoice on the order platform: the invoiced amount and the
// payments recorded against it.
type Order struct {
	ID         string
	GrandTotal decimal.Decimal
	Payments   []decimal.Decimal
	DueDate    *time.Time
}

// LedgerRecord is the accounting platform's view of the same order.
// A nil *LedgerRecord means the order was never exported.
type LedgerRecord struct {
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	AmountDue  decimal.Decimal
}

// Result is the derived reconciliation outcome for a single order.
// It is computed fresh on every call; nothing here is cached.
type Result struct {
	OrderID         string          `json:"order_id"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	PaymentsTotal   decimal.Decimal `json:"payments_total"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	ExternalStatus  ExternalStatus  `json:"external_status"`
	PastDue         bool            `json:"past_due"`
	BalanceMismatch bool            `json:"balance_mismatch"`
}

// PaymentsTotal sums the recorded payments of an order.
func (o Order) PaymentsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range o.Payments {
		sum = sum.Add(p)
	}
	return sum
}

// Outstanding returns grand total minus the sum of payments.
// Negative means the order was overpaid.
func Outstanding(o Order) decimal.Decimal {
	return o.GrandTotal.Sub(o.PaymentsTotal())
}

// ClassifyPaymentStatus buckets an order by its payment progress.
// The branches are evaluated in order; "free" must win before the paid
// check because a zero-total order with zero payments satisfies both.
// Equality uses Tolerance: summed card payments routinely miss the grand
// total by fractions of a cent.
func ClassifyPaymentStatus(grandTotal, paymentsSum decimal.Decimal) PaymentStatus {
	switch {
	case grandTotal.IsZero():
		return StatusFree
	case grandTotal.Sub(paymentsSum).Abs().LessThanOrEqual(Tolerance):
		return StatusPaid
	case paymentsSum.GreaterThan(grandTotal):
		return StatusOverpaid
	case paymentsSum.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// ClassifyExternalStatus buckets the ledger's total/paid/due triple.
// A nil record means the order was never exported to the ledger.
func ClassifyExternalStatus(rec *LedgerRecord) ExternalStatus {
	if rec == nil {
		return ExternalNotExported
	}
	switch {
	case rec.Total.Equal(rec.AmountPaid) && rec.AmountDue.IsZero():
		// The settled and the never-invoiced cases both satisfy this
		// branch; an all-zero record is "free", not "paid".
		if rec.Total.IsZero() {
			return ExternalFree
		}
		return ExternalPaid
	case !rec.Total.Equal(rec.AmountPaid):
		if rec.AmountDue.IsPositive() {
			return ExternalPartial
		}
		return ExternalOverpaid
	default:
		return ExternalUnknown
	}
}

// DetectMismatch reports whether the locally computed outstanding amount
// and the ledger's amount due disagree beyond Tolerance. Symmetric in its
// arguments.
func DetectMismatch(outstanding, externalDue decimal.Decimal) bool {
	return outstanding.Sub(externalDue).Abs().GreaterThan(Tolerance)
}

// IsPastDue reports whether the due date falls strictly before today.
// Both sides are truncated to start of day in their own wall-clock terms;
// the caller supplies an already-localized today. A nil due date is never
// past due.
func IsPastDue(dueDate *time.Time, today time.Time) bool {
	if dueDate == nil {
		return false
	}
	return startOfDay(*dueDate).Before(startOfDay(today))
}

// AggregateBalance sums outstanding amounts over a customer's orders.
// Order of the input does not matter.
func AggregateBalance(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(Outstanding(o))
	}
	return total
}

// Reconcile derives the full reconciliation result for one order and its
// optional ledger record. It fails fast on a negative grand total instead
// of classifying nonsense.
func Reconcile(o Order, rec *LedgerRecord, today time.Time) (Result, error) {
	if o.GrandTotal.IsNegative() {
		return Result{}, fmt.Errorf("order %s: negative grand total %s", o.ID, o.GrandTotal)
	}

	paymentsSum := o.PaymentsTotal()
	outstanding := o.GrandTotal.Sub(paymentsSum)

	res := Result{
		OrderID:        o.ID,
		Outstanding:    outstanding,
		PaymentsTotal:  paymentsSum,
		PaymentStatus:  ClassifyPaymentStatus(o.GrandTotal, paymentsSum),
		ExternalStatus: ClassifyExternalStatus(rec),
		PastDue:        IsPastDue(o.DueDate, today),
	}
	if rec != nil {
		res.BalanceMismatch = DetectMismatch(outstanding, rec.AmountDue)
	}
	return res, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
