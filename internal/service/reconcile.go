package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billmatic/statement-recon/internal/domain"
	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/billmatic/statement-recon/internal/models"
	"github.com/billmatic/statement-recon/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileService reconciles a single order against the accounting ledger
// and persists the resulting statement row.
type ReconcileService struct {
	orders gateway.OrderGateway
	ledger gateway.LedgerGateway
	store  StatementStore
	loc    *time.Location
	now    func() time.Time
}

func NewReconcileService(orders gateway.OrderGateway, ledger gateway.LedgerGateway, store StatementStore, loc *time.Location) *ReconcileService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReconcileService{
		orders: orders,
		ledger: ledger,
		store:  store,
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *ReconcileService) WithClock(now func() time.Time) *ReconcileService {
	s.now = now
	return s
}

// ReconcileOrder fetches one order by platform id, reconciles it and
// upserts the statement row.
func (s *ReconcileService) ReconcileOrder(ctx context.Context, orderID string) (*models.StatementAccount, error) {
	rec, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}

	customer := &models.Customer{Username: rec.CustomerRef}
	if err := s.store.UpsertCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("upsert customer %s: %w", rec.CustomerRef, err)
	}

	return s.reconcileRecord(ctx, customer.ID, *rec)
}

// reconcileRecord runs the reconciliation core for an order already in
// hand and persists the outcome. Shared by single-order reconcile and the
// full sync pass.
func (s *ReconcileService) reconcileRecord(ctx context.Context, customerID uuid.UUID, rec gateway.OrderRecord) (*models.StatementAccount, error) {
	order, err := rec.DomainOrder()
	if err != nil {
		return nil, err
	}

	var ledgerRec *domain.LedgerRecord
	invoiceNumber := ""
	invoice, err := s.ledger.GetInvoice(ctx, rec.ID)
	switch {
	case err == nil:
		ledgerRec = invoice.Record()
		invoiceNumber = invoice.InvoiceNumber
	case errors.Is(err, gateway.ErrInvoiceNotFound):
		// Never exported; reconcile against the order platform alone.
	default:
		return nil, fmt.Errorf("fetch ledger invoice for order %s: %w", rec.ID, err)
	}

	result, err := domain.Reconcile(order, ledgerRec, s.today())
	if err != nil {
		return nil, err
	}

	row := &models.StatementAccount{
		CustomerID:      customerID,
		OrderID:         order.ID,
		InvoiceNumber:   invoiceNumber,
		GrandTotal:      domain.RoundCents(order.GrandTotal),
		PaymentsTotal:   domain.RoundCents(result.PaymentsTotal),
		Outstanding:     domain.RoundCents(result.Outstanding),
		PaymentStatus:   string(result.PaymentStatus),
		ExternalStatus:  string(result.ExternalStatus),
		DueDate:         order.DueDate,
		PastDue:         result.PastDue,
		BalanceMismatch: result.BalanceMismatch,
	}
	if err := s.store.UpsertStatementAccount(ctx, row); err != nil {
		return nil, fmt.Errorf("persist statement row for order %s: %w", order.ID, err)
	}

	observability.IncrementOrderReconciled(row.PaymentStatus)
	if row.BalanceMismatch {
		observability.IncrementBalanceMismatch(row.ExternalStatus)
		zap.L().Warn("balance mismatch",
			zap.String("order_id", order.ID),
			zap.String("outstanding", row.Outstanding.StringFixed(2)),
			zap.String("external_status", row.ExternalStatus),
		)
	}
	return row, nil
}

// today returns the start of the current day in the statement timezone.
// Past-due decisions depend on the business's calendar, not the server's.
func (s *ReconcileService) today() time.Time {
	return s.now().In(s.loc)
}
