package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func amounts(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(ss))
	for _, s := range ss {
		out = append(out, dec(s))
	}
	return out
}

func TestOutstanding(t *testing.T) {
	o := Order{ID: "N1001", GrandTotal: dec("1500.00"), Payments: amounts("500.00", "300.00")}
	assert.True(t, Outstanding(o).Equal(dec("700.00")))
}

func TestOutstanding_NoPayments(t *testing.T) {
	o := Order{ID: "N1002", GrandTotal: dec("250.00")}
	assert.True(t, Outstanding(o).Equal(dec("250.00")))
}

func TestClassifyPaymentStatus(t *testing.T) {
	tests := []struct {
		name        string
		grandTotal  string
		paymentsSum string
		want        PaymentStatus
	}{
		{"zero total is free", "0", "0", StatusFree},
		{"zero total with stray payment is still free", "0", "10.00", StatusFree},
		{"exact payment", "1000.00", "1000.00", StatusPaid},
		{"sub-cent shortfall counts as paid", "1000.00", "999.995", StatusPaid},
		{"sub-cent excess counts as paid", "1000.00", "1000.005", StatusPaid},
		{"overpaid", "1000.00", "1200.00", StatusOverpaid},
		{"partial", "1500.00", "800.00", StatusPartial},
		{"no payments", "1500.00", "0", StatusUnpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPaymentStatus(dec(tt.grandTotal), dec(tt.paymentsSum))
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every (grandTotal, paymentsSum) pair lands in exactly one bucket, and
// free wins whenever the grand total is zero.
func TestClassifyPaymentStatus_TableIsTotal(t *testing.T) {
	totals := []string{"0", "0.005", "1", "99.99", "1500"}
	sums := []string{"0", "0.005", "1", "99.99", "1500", "2000"}
	valid := map[PaymentStatus]bool{
		StatusFree: true, StatusPaid: true, StatusOverpaid: true,
		StatusPartial: true, StatusUnpaid: true,
	}
	for _, gt := range totals {
		for _, ps := range sums {
			got := ClassifyPaymentStatus(dec(gt), dec(ps))
			assert.True(t, valid[got], "unexpected status %q for (%s,%s)", got, gt, ps)
			if dec(gt).IsZero() {
				assert.Equal(t, StatusFree, got)
			}
		}
	}
}

func TestClassifyExternalStatus(t *testing.T) {
	tests := []struct {
		name string
		rec  *LedgerRecord
		want ExternalStatus
	}{
		{"missing record", nil, ExternalNotExported},
		{"settled", &LedgerRecord{Total: dec("100"), AmountPaid: dec("100"), AmountDue: dec("0")}, ExternalPaid},
		{"all zero", &LedgerRecord{}, ExternalFree},
		{"partially paid", &LedgerRecord{Total: dec("1500"), AmountPaid: dec("800"), AmountDue: dec("700")}, ExternalPartial},
		{"paid beyond total", &LedgerRecord{Total: dec("1000"), AmountPaid: dec("1200"), AmountDue: dec("-200")}, ExternalOverpaid},
		{"inconsistent triple", &LedgerRecord{Total: dec("100"), AmountPaid: dec("100"), AmountDue: dec("40")}, ExternalUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExternalStatus(tt.rec))
		})
	}
}

func TestDetectMismatch_Symmetry(t *testing.T) {
	a, b := dec("700.00"), dec("750.00")
	assert.True(t, DetectMismatch(a, b))
	assert.Equal(t, DetectMismatch(a, b), DetectMismatch(b, a))
}

func TestDetectMismatch_ToleranceBoundary(t *testing.T) {
	x := dec("123.45")
	assert.False(t, DetectMismatch(x, x.Add(dec("0.009999"))))
	assert.False(t, DetectMismatch(x, x.Add(dec("0.01"))))
	assert.True(t, DetectMismatch(x, x.Add(dec("0.010001"))))
}

func TestIsPastDue(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)
	today := time.Date(2024, 3, 15, 9, 30, 0, 0, loc)

	yesterday := time.Date(2024, 3, 14, 23, 59, 0, 0, loc)
	sameDay := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	tomorrow := time.Date(2024, 3, 16, 1, 0, 0, 0, loc)

	assert.True(t, IsPastDue(&yesterday, today))
	assert.False(t, IsPastDue(&sameDay, today), "due today is not past due")
	assert.False(t, IsPastDue(&tomorrow, today))
	assert.False(t, IsPastDue(nil, today))
}

func TestAggregateBalance(t *testing.T) {
	orders := []Order{
		{ID: "a", GrandTotal: dec("1500.00"), Payments: amounts("500.00", "300.00")},
		{ID: "b", GrandTotal: dec("1000.00"), Payments: amounts("1200.00")},
		{ID: "c", GrandTotal: dec("50.00")},
	}
	assert.True(t, AggregateBalance(orders).Equal(dec("550.00")))

	// Commutative under reordering.
	reordered := []Order{orders[2], orders[0], orders[1]}
	assert.True(t, AggregateBalance(orders).Equal(AggregateBalance(reordered)))

	assert.True(t, AggregateBalance(nil).IsZero())
}

func TestReconcile_SeedScenarios(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("partial payment", func(t *testing.T) {
		res, err := Reconcile(Order{ID: "1", GrandTotal: dec("1500.00"), Payments: amounts("500.00", "300.00")}, nil, today)
		require.NoError(t, err)
		assert.True(t, res.Outstanding.Equal(dec("700.00")))
		assert.Equal(t, StatusPartial, res.PaymentStatus)
		assert.Equal(t, ExternalNotExported, res.ExternalStatus)
		assert.False(t, res.BalanceMismatch)
	})

	t.Run("zero total", func(t *testing.T) {
		res, err := Reconcile(Order{ID: "2"}, nil, today)
		require.NoError(t, err)
		assert.Equal(t, StatusFree, res.PaymentStatus)
		assert.True(t, res.Outstanding.IsZero())
	})

	t.Run("settled", func(t *testing.T) {
		res, err := Reconcile(Order{ID: "3", GrandTotal: dec("1000.00"), Payments: amounts("1000.00")}, nil, today)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, res.PaymentStatus)
		assert.True(t, res.Outstanding.IsZero())
	})

	t.Run("overpaid", func(t *testing.T) {
		res, err := Reconcile(Order{ID: "4", GrandTotal: dec("1000.00"), Payments: amounts("1200.00")}, nil, today)
		require.NoError(t, err)
		assert.Equal(t, StatusOverpaid, res.PaymentStatus)
		assert.True(t, res.Outstanding.Equal(dec("-200.00")))
	})

	t.Run("ledger agrees", func(t *testing.T) {
		rec := &LedgerRecord{Total: dec("1500.00"), AmountPaid: dec("800.00"), AmountDue: dec("700.00")}
		res, err := Reconcile(Order{ID: "5", GrandTotal: dec("1500.00"), Payments: amounts("800.00")}, rec, today)
		require.NoError(t, err)
		assert.False(t, res.BalanceMismatch)
		assert.Equal(t, ExternalPartial, res.ExternalStatus)
	})

	t.Run("ledger disagrees by fifty dollars", func(t *testing.T) {
		rec := &LedgerRecord{Total: dec("1500.00"), AmountPaid: dec("800.00"), AmountDue: dec("700.00")}
		res, err := Reconcile(Order{ID: "6", GrandTotal: dec("1550.00"), Payments: amounts("800.00")}, rec, today)
		require.NoError(t, err)
		assert.True(t, res.BalanceMismatch)
	})
}

func TestReconcile_NegativeGrandTotal(t *testing.T) {
	_, err := Reconcile(Order{ID: "bad", GrandTotal: dec("-10.00")}, nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative grand total")
}

// Pure function: identical input, identical output.
func TestReconcile_Idempotent(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	o := Order{ID: "7", GrandTotal: dec("900.00"), Payments: amounts("100.00"), DueDate: &due}
	rec := &LedgerRecord{Total: dec("900.00"), AmountPaid: dec("100.00"), AmountDue: dec("800.00")}

	first, err := Reconcile(o, rec, today)
	require.NoError(t, err)
	second, err := Reconcile(o, rec, today)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, first.PastDue)
}
