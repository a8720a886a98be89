package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/billmatic/statement-recon/internal/api"
	"github.com/billmatic/statement-recon/internal/config"
	"github.com/billmatic/statement-recon/internal/db"
	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/billmatic/statement-recon/internal/idempotency"
	"github.com/billmatic/statement-recon/internal/observability"
	"github.com/billmatic/statement-recon/internal/repository"
	"github.com/billmatic/statement-recon/internal/service"
	"github.com/billmatic/statement-recon/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and sync worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	repo := repository.NewRepository(pool)
	idemStore := idempotency.NewStore(redisClient, repo, cfg.IdempotencyTTL)

	orders := gateway.NewOrderClient(cfg.OrdersAPIURL, cfg.OrdersAPIUser, cfg.OrdersAPIKey)
	ledger := gateway.NewLedgerClient(cfg.LedgerAPIURL, cfg.LedgerTokenURL, cfg.LedgerClientID, cfg.LedgerClientSecret, cfg.LedgerTenantID)

	reconcileSvc := service.NewReconcileService(orders, ledger, repo, cfg.Location)
	syncSvc := service.NewSyncService(orders, repo, reconcileSvc).WithConcurrency(cfg.SyncConcurrency)
	statementSvc := service.NewStatementService(repo, cfg.Location)

	syncWorker := worker.NewSyncWorker(syncSvc).WithInterval(cfg.SyncInterval)
	stopWorker := syncWorker.Run(ctx)
	logger.Info("sync worker started", zap.Duration("interval", cfg.SyncInterval), zap.Int("concurrency", cfg.SyncConcurrency))

	router := api.NewRouter(cfg, logger, pool, idemStore, redisClient, reconcileSvc, syncSvc, statementSvc, repo)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping sync worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
