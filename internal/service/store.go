package service

import (
	"context"

	"github.com/billmatic/statement-recon/internal/models"
	"github.com/google/uuid"
)

// StatementStore defines the minimal data access contract required by
// services. *repository.Repository satisfies it; tests use an in-memory
// implementation.
type StatementStore interface {
	UpsertCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpsertStatementAccount(ctx context.Context, row *models.StatementAccount) error
	ListStatementAccounts(ctx context.Context, customerID uuid.UUID) ([]models.StatementAccount, error)
	ListCustomersWithBalance(ctx context.Context) ([]models.Customer, error)
	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	FinishSyncRun(ctx context.Context, run *models.SyncRun) error
	GetSyncRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error)
}
