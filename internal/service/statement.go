package service

import (
	"context"
	"fmt"
	"time"

	"github.com/billmatic/statement-recon/internal/domain"
	"github.com/billmatic/statement-recon/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementService builds customer-facing statements from reconciled rows.
type StatementService struct {
	store StatementStore
	loc   *time.Location
	now   func() time.Time
}

func NewStatementService(store StatementStore, loc *time.Location) *StatementService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatementService{store: store, loc: loc, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *StatementService) WithClock(now func() time.Time) *StatementService {
	s.now = now
	return s
}

// BuildStatement assembles the statement for one customer: every
// reconciled order row, the aggregate balance, and past-due totals.
// Past-due flags are recomputed against today rather than trusted from
// sync time, since a row synced last week may have crossed its due date
// in the meantime.
func (s *StatementService) BuildStatement(ctx context.Context, customerID uuid.UUID) (*models.Statement, error) {
	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	lines, err := s.store.ListStatementAccounts(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load statement rows: %w", err)
	}

	today := s.now().In(s.loc)
	balance := decimal.Zero
	pastDueTotal := decimal.Zero
	for i := range lines {
		lines[i].PastDue = domain.IsPastDue(lines[i].DueDate, today)
		balance = balance.Add(lines[i].Outstanding)
		if lines[i].PastDue && lines[i].Outstanding.IsPositive() {
			pastDueTotal = pastDueTotal.Add(lines[i].Outstanding)
		}
	}

	return &models.Statement{
		Customer:     *customer,
		Lines:        lines,
		Balance:      domain.RoundCents(balance),
		PastDueTotal: domain.RoundCents(pastDueTotal),
		GeneratedAt:  today,
	}, nil
}

// GenerateStatements builds statements for every customer carrying a
// positive balance. Customers that settle between the balance listing and
// the per-customer build are dropped rather than sent an empty statement.
func (s *StatementService) GenerateStatements(ctx context.Context) ([]models.Statement, error) {
	customers, err := s.store.ListCustomersWithBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers with balance: %w", err)
	}

	statements := make([]models.Statement, 0, len(customers))
	for _, c := range customers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		st, err := s.BuildStatement(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("build statement for %s: %w", c.Username, err)
		}
		if !st.HasBalance() {
			continue
		}
		statements = append(statements, *st)
	}
	return statements, nil
}
