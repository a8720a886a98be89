package gateway

import (
	"context"
	"sync"
)

// MockOrderGateway serves canned order platform data for tests and local
// development.
type MockOrderGateway struct {
	mu        sync.RWMutex
	Customers []CustomerRecord
	Orders    map[string][]OrderRecord // keyed by customer ref
	Err       error
}

func NewMockOrderGateway() *MockOrderGateway {
	return &MockOrderGateway{Orders: make(map[string][]OrderRecord)}
}

// AddOrder registers an order under its customer ref.
func (m *MockOrderGateway) AddOrder(customer CustomerRecord, order OrderRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, c := range m.Customers {
		if c.Ref == customer.Ref {
			found = true
			break
		}
	}
	if !found {
		m.Customers = append(m.Customers, customer)
	}
	order.CustomerRef = customer.Ref
	m.Orders[customer.Ref] = append(m.Orders[customer.Ref], order)
}

func (m *MockOrderGateway) ListCustomers(ctx context.Context, page int) ([]CustomerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if page > 1 {
		return nil, nil
	}
	return append([]CustomerRecord(nil), m.Customers...), nil
}

func (m *MockOrderGateway) ListCustomerOrders(ctx context.Context, customerRef string) ([]OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]OrderRecord(nil), m.Orders[customerRef]...), nil
}

func (m *MockOrderGateway) GetOrder(ctx context.Context, orderID string) (*OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, orders := range m.Orders {
		for _, o := range orders {
			if o.ID == orderID {
				cp := o
				return &cp, nil
			}
		}
	}
	return nil, ErrOrderNotFound
}

// MockLedgerGateway serves canned accounting invoices keyed by order
// reference. References without an invoice return ErrInvoiceNotFound,
// mirroring orders that were never exported.
type MockLedgerGateway struct {
	mu       sync.RWMutex
	Invoices map[string]LedgerInvoice
	Err      error
}

func NewMockLedgerGateway() *MockLedgerGateway {
	return &MockLedgerGateway{Invoices: make(map[string]LedgerInvoice)}
}

func (m *MockLedgerGateway) SetInvoice(reference string, inv LedgerInvoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invoices[reference] = inv
}

func (m *MockLedgerGateway) GetInvoice(ctx context.Context, reference string) (*LedgerInvoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	inv, ok := m.Invoices[reference]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return &inv, nil
}
