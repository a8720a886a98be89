package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/billmatic/statement-recon/internal/models"
	"github.com/billmatic/statement-recon/internal/observability"
	"go.uber.org/zap"
)

// SyncService runs a full statement synchronization: every customer on the
// order platform, every order, reconciled and persisted.
type SyncService struct {
	orders      gateway.OrderGateway
	store       StatementStore
	reconciler  *ReconcileService
	concurrency int
}

func NewSyncService(orders gateway.OrderGateway, store StatementStore, reconciler *ReconcileService) *SyncService {
	return &SyncService{
		orders:      orders,
		store:       store,
		reconciler:  reconciler,
		concurrency: 20,
	}
}

// WithConcurrency bounds how many customers are processed in parallel.
func (s *SyncService) WithConcurrency(n int) *SyncService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

type syncCounters struct {
	mu         sync.Mutex
	customers  int
	orders     int
	mismatches int
	failures   int
}

// Run executes one synchronization pass and records it as a sync_runs row.
// Individual order failures are counted and logged, not fatal; the run
// itself only fails when the customer listing or bookkeeping does.
func (s *SyncService) Run(ctx context.Context) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	if err := s.store.CreateSyncRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	counters := &syncCounters{}
	err := s.forEachCustomer(ctx, counters)

	run.CustomersSeen = counters.customers
	run.OrdersSeen = counters.orders
	run.MismatchCount = counters.mismatches
	run.FailureCount = counters.failures
	if err != nil {
		run.Status = models.SyncRunFailed
		run.FailureMessage = err.Error()
	} else {
		run.Status = models.SyncRunCompleted
	}
	if finishErr := s.store.FinishSyncRun(ctx, run); finishErr != nil {
		zap.L().Error("failed to finish sync run", zap.Error(finishErr), zap.String("run_id", run.ID.String()))
	}
	if err != nil {
		return run, err
	}

	if withBalance, balErr := s.store.ListCustomersWithBalance(ctx); balErr == nil {
		observability.SetCustomersWithBalance(len(withBalance))
	} else {
		zap.L().Warn("failed to count customers with balance", zap.Error(balErr))
	}

	zap.L().Info("sync run completed",
		zap.String("run_id", run.ID.String()),
		zap.Int("customers", run.CustomersSeen),
		zap.Int("orders", run.OrdersSeen),
		zap.Int("mismatches", run.MismatchCount),
		zap.Int("failures", run.FailureCount),
	)
	return run, nil
}

// forEachCustomer pages through the order platform's customers and
// reconciles each one's orders, at most `concurrency` customers at a time.
func (s *SyncService) forEachCustomer(ctx context.Context, counters *syncCounters) error {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for page := 1; ; page++ {
		customers, err := s.orders.ListCustomers(ctx, page)
		if err != nil {
			wg.Wait()
			return fmt.Errorf("list customers page %d: %w", page, err)
		}
		if len(customers) == 0 {
			break
		}

		for _, c := range customers {
			if ctx.Err() != nil {
				wg.Wait()
				return ctx.Err()
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(c gateway.CustomerRecord) {
				defer wg.Done()
				defer func() { <-sem }()
				s.syncCustomer(ctx, c, counters)
			}(c)
		}
	}

	wg.Wait()
	return ctx.Err()
}

func (s *SyncService) syncCustomer(ctx context.Context, c gateway.CustomerRecord, counters *syncCounters) {
	customer := &models.Customer{Username: c.Ref, Company: c.Company, Email: c.Email}
	if err := s.store.UpsertCustomer(ctx, customer); err != nil {
		zap.L().Error("sync: upsert customer failed", zap.Error(err), zap.String("customer", c.Ref))
		counters.add(func(sc *syncCounters) { sc.failures++ })
		return
	}
	counters.add(func(sc *syncCounters) { sc.customers++ })

	orders, err := s.orders.ListCustomerOrders(ctx, c.Ref)
	if err != nil {
		zap.L().Error("sync: list orders failed", zap.Error(err), zap.String("customer", c.Ref))
		counters.add(func(sc *syncCounters) { sc.failures++ })
		return
	}

	for _, rec := range orders {
		row, err := s.reconciler.reconcileRecord(ctx, customer.ID, rec)
		if err != nil {
			zap.L().Error("sync: reconcile order failed",
				zap.Error(err),
				zap.String("customer", c.Ref),
				zap.String("order_id", rec.ID),
			)
			counters.add(func(sc *syncCounters) { sc.failures++ })
			continue
		}
		counters.add(func(sc *syncCounters) {
			sc.orders++
			if row.BalanceMismatch {
				sc.mismatches++
			}
		})
	}
}

func (c *syncCounters) add(fn func(*syncCounters)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}
