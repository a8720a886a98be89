package service

import (
	"context"
	"testing"
	"time"

	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReconciled(t *testing.T, orders *gateway.MockOrderGateway, store *memStore) {
	t.Helper()

	orders.AddOrder(gateway.CustomerRecord{Ref: "acme", Company: "Acme Pty"},
		orderJSON("N1", "acme", "1500.00", "2024-05-01", "500.00"))
	orders.AddOrder(gateway.CustomerRecord{Ref: "acme", Company: "Acme Pty"},
		orderJSON("N2", "acme", "300.00", "2024-07-01"))
	orders.AddOrder(gateway.CustomerRecord{Ref: "globex"},
		orderJSON("N3", "globex", "80.00", "", "80.00"))

	reconciler := NewReconcileService(orders, gateway.NewMockLedgerGateway(), store, time.UTC).WithClock(fixedClock("2024-06-01"))
	sync := NewSyncService(orders, store, reconciler)
	_, err := sync.Run(context.Background())
	require.NoError(t, err)
}

func TestBuildStatement(t *testing.T) {
	orders := gateway.NewMockOrderGateway()
	store := newMemStore()
	seedReconciled(t, orders, store)

	acme := store.customers["acme"]
	svc := NewStatementService(store, time.UTC).WithClock(fixedClock("2024-06-01"))

	st, err := svc.BuildStatement(context.Background(), acme.ID)
	require.NoError(t, err)

	assert.Equal(t, "Acme Pty", st.Customer.Company)
	assert.Len(t, st.Lines, 2)
	assert.Equal(t, "1300.00", st.Balance.StringFixed(2))
	// Only the May order is past due as of 2024-06-01.
	assert.Equal(t, "1000.00", st.PastDueTotal.StringFixed(2))
	assert.True(t, st.HasBalance())
}

func TestBuildStatement_PastDueRecomputedAtBuildTime(t *testing.T) {
	orders := gateway.NewMockOrderGateway()
	store := newMemStore()
	seedReconciled(t, orders, store)

	acme := store.customers["acme"]

	// Months later, the July order has also crossed its due date.
	svc := NewStatementService(store, time.UTC).WithClock(fixedClock("2024-09-01"))
	st, err := svc.BuildStatement(context.Background(), acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "1300.00", st.PastDueTotal.StringFixed(2))
}

func TestGenerateStatements_OnlyCustomersWithBalance(t *testing.T) {
	orders := gateway.NewMockOrderGateway()
	store := newMemStore()
	seedReconciled(t, orders, store)

	svc := NewStatementService(store, time.UTC).WithClock(fixedClock("2024-06-01"))
	statements, err := svc.GenerateStatements(context.Background())
	require.NoError(t, err)

	require.Len(t, statements, 1, "globex is fully paid and gets no statement")
	assert.Equal(t, "acme", statements[0].Customer.Username)
}
