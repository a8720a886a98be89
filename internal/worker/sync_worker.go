package worker

import (
	"context"
	"sync"
	"time"

	"github.com/billmatic/statement-recon/internal/observability"
	"github.com/billmatic/statement-recon/internal/service"
	"go.uber.org/zap"
)

// SyncWorker runs the full customer sync on a fixed schedule so statement
// rows stay current even when nobody triggers a run by hand.
type SyncWorker struct {
	svc      *service.SyncService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSyncWorker constructs a worker with a default daily interval.
func NewSyncWorker(svc *service.SyncService) *SyncWorker {
	return &SyncWorker{
		svc:      svc,
		interval: 24 * time.Hour,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *SyncWorker) WithInterval(interval time.Duration) *SyncWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs the sync at the configured interval.
func (w *SyncWorker) Start(ctx context.Context) {
	zap.L().Info("sync worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("sync worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("sync worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *SyncWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SyncWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *SyncWorker) runOnce(ctx context.Context) {
	run, err := w.svc.Run(ctx)
	if err != nil {
		observability.IncrementWorkerRun("sync", "failed")
		zap.L().Error("scheduled sync run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("sync", "success")
	zap.L().Info("scheduled sync run finished",
		zap.String("run_id", run.ID.String()),
		zap.Int("customers", run.CustomersSeen),
		zap.Int("orders", run.OrdersSeen),
		zap.Int("mismatches", run.MismatchCount),
		zap.Int("failures", run.FailureCount),
	)
}
