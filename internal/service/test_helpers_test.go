package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/billmatic/statement-recon/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory StatementStore for unit tests.
type memStore struct {
	mu         sync.Mutex
	customers  map[string]*models.Customer         // keyed by username
	rows       map[string]*models.StatementAccount // keyed by customerID/orderID
	runs       map[uuid.UUID]*models.SyncRun
	failUpsert bool
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[string]*models.Customer),
		rows:      make(map[string]*models.StatementAccount),
		runs:      make(map[uuid.UUID]*models.SyncRun),
	}
}

func (m *memStore) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.customers[customer.Username]; ok {
		if customer.Company != "" {
			existing.Company = customer.Company
		}
		if customer.Email != "" {
			existing.Email = customer.Email
		}
		*customer = *existing
		return nil
	}
	customer.ID = uuid.New()
	customer.CreatedAt = time.Now()
	cp := *customer
	m.customers[customer.Username] = &cp
	return nil
}

func (m *memStore) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer %s not found", id)
}

func (m *memStore) UpsertStatementAccount(ctx context.Context, row *models.StatementAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return fmt.Errorf("forced upsert failure")
	}
	key := row.CustomerID.String() + "/" + row.OrderID
	if existing, ok := m.rows[key]; ok {
		row.ID = existing.ID
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.SyncedAt = time.Now()
	cp := *row
	m.rows[key] = &cp
	return nil
}

func (m *memStore) ListStatementAccounts(ctx context.Context, customerID uuid.UUID) ([]models.StatementAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StatementAccount
	for _, r := range m.rows {
		if r.CustomerID == customerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListCustomersWithBalance(ctx context.Context) ([]models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Customer
	for _, c := range m.customers {
		total := int64(0)
		for _, r := range m.rows {
			if r.CustomerID == c.ID {
				total += r.Outstanding.Shift(2).IntPart()
			}
		}
		if total > 0 {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = uuid.New()
	run.Status = models.SyncRunRunning
	run.StartedAt = time.Now()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memStore) FinishSyncRun(ctx context.Context, run *models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	run.FinishedAt = &now
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memStore) GetSyncRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("sync run %s not found", id)
	}
	cp := *run
	return &cp, nil
}

func orderJSON(id, customer, grandTotal, dueDate string, payments ...string) gateway.OrderRecord {
	rec := gateway.OrderRecord{ID: id, CustomerRef: customer, DueDate: dueDate}
	rec.GrandTotal.Decimal = mustDec(grandTotal)
	for _, p := range payments {
		var pr gateway.PaymentRecord
		pr.Amount.Decimal = mustDec(p)
		rec.Payments = append(rec.Payments, pr)
	}
	return rec
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
