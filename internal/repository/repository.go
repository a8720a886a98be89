package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/billmatic/statement-recon/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries
// run inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, username, company, email, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (username) DO UPDATE SET
			company = COALESCE(NULLIF(EXCLUDED.company, ''), customers.company),
			email   = COALESCE(NULLIF(EXCLUDED.email, ''), customers.email)
		RETURNING id, created_at
	`
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query, customer.ID, customer.Username, customer.Company, customer.Email).
		Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert customer %s: %w", customer.Username, err)
	}
	return nil
}

func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT id, username, company, email, created_at FROM customers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&customer.ID, &customer.Username, &customer.Company, &customer.Email, &customer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (r *Repository) UpsertStatementAccount(ctx context.Context, row *models.StatementAccount) error {
	query := `
		INSERT INTO statement_accounts (
			id, customer_id, order_id, invoice_number, grand_total, payments_total,
			outstanding, payment_status, external_status, due_date, past_due,
			balance_mismatch, synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (customer_id, order_id) DO UPDATE SET
			invoice_number   = EXCLUDED.invoice_number,
			grand_total      = EXCLUDED.grand_total,
			payments_total   = EXCLUDED.payments_total,
			outstanding      = EXCLUDED.outstanding,
			payment_status   = EXCLUDED.payment_status,
			external_status  = EXCLUDED.external_status,
			due_date         = EXCLUDED.due_date,
			past_due         = EXCLUDED.past_due,
			balance_mismatch = EXCLUDED.balance_mismatch,
			synced_at        = NOW()
		RETURNING id, synced_at
	`
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query,
		row.ID, row.CustomerID, row.OrderID, row.InvoiceNumber,
		row.GrandTotal.StringFixed(2), row.PaymentsTotal.StringFixed(2), row.Outstanding.StringFixed(2),
		row.PaymentStatus, row.ExternalStatus, row.DueDate, row.PastDue, row.BalanceMismatch,
	).Scan(&row.ID, &row.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert statement account for order %s: %w", row.OrderID, err)
	}
	return nil
}

func (r *Repository) ListStatementAccounts(ctx context.Context, customerID uuid.UUID) ([]models.StatementAccount, error) {
	query := `
		SELECT id, customer_id, order_id, invoice_number, grand_total::text,
		       payments_total::text, outstanding::text, payment_status,
		       external_status, due_date, past_due, balance_mismatch, synced_at
		FROM statement_accounts
		WHERE customer_id = $1
		ORDER BY due_date NULLS LAST, order_id
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statement accounts: %w", err)
	}
	defer rows.Close()

	var out []models.StatementAccount
	for rows.Next() {
		row, err := scanStatementAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListCustomersWithBalance returns customers whose summed outstanding is
// positive; only they appear on generated statements.
func (r *Repository) ListCustomersWithBalance(ctx context.Context) ([]models.Customer, error) {
	query := `
		SELECT c.id, c.username, c.company, c.email, c.created_at
		FROM customers c
		JOIN statement_accounts s ON s.customer_id = c.id
		GROUP BY c.id, c.username, c.company, c.email, c.created_at
		HAVING SUM(s.outstanding) > 0
		ORDER BY c.username
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers with balance: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Username, &c.Company, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, status, started_at)
		VALUES ($1, $2, NOW())
		RETURNING started_at
	`
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Status = models.SyncRunRunning
	if err := r.db.QueryRow(ctx, query, run.ID, run.Status).Scan(&run.StartedAt); err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

func (r *Repository) FinishSyncRun(ctx context.Context, run *models.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET status = $2, customers_seen = $3, orders_seen = $4, mismatch_count = $5,
		    failure_count = $6, failure_message = $7, finished_at = NOW()
		WHERE id = $1
		RETURNING finished_at
	`
	var finished time.Time
	err := r.db.QueryRow(ctx, query, run.ID, run.Status, run.CustomersSeen, run.OrdersSeen,
		run.MismatchCount, run.FailureCount, run.FailureMessage).Scan(&finished)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	run.FinishedAt = &finished
	return nil
}

func (r *Repository) GetSyncRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	query := `
		SELECT id, status, customers_seen, orders_seen, mismatch_count,
		       failure_count, COALESCE(failure_message, ''), started_at, finished_at
		FROM sync_runs WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Status, &run.CustomersSeen, &run.OrdersSeen,
		&run.MismatchCount, &run.FailureCount, &run.FailureMessage,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}
	return run, nil
}

type statementScanner interface {
	Scan(dest ...any) error
}

func scanStatementAccount(row statementScanner) (models.StatementAccount, error) {
	var (
		s                                   models.StatementAccount
		grandTotal, paymentsTot, outstanding string
	)
	err := row.Scan(
		&s.ID, &s.CustomerID, &s.OrderID, &s.InvoiceNumber,
		&grandTotal, &paymentsTot, &outstanding,
		&s.PaymentStatus, &s.ExternalStatus, &s.DueDate, &s.PastDue,
		&s.BalanceMismatch, &s.SyncedAt,
	)
	if err != nil {
		return models.StatementAccount{}, fmt.Errorf("failed to scan statement account: %w", err)
	}
	if s.GrandTotal, err = decimal.NewFromString(grandTotal); err != nil {
		return models.StatementAccount{}, fmt.Errorf("bad grand_total %q: %w", grandTotal, err)
	}
	if s.PaymentsTotal, err = decimal.NewFromString(paymentsTot); err != nil {
		return models.StatementAccount{}, fmt.Errorf("bad payments_total %q: %w", paymentsTot, err)
	}
	if s.Outstanding, err = decimal.NewFromString(outstanding); err != nil {
		return models.StatementAccount{}, fmt.Errorf("bad outstanding %q: %w", outstanding, err)
	}
	return s, nil
}
