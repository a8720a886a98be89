package api

import (
	"github.com/billmatic/statement-recon/internal/api/handler"
	"github.com/billmatic/statement-recon/internal/api/middleware"
	"github.com/billmatic/statement-recon/internal/api/spec"
	"github.com/billmatic/statement-recon/internal/config"
	"github.com/billmatic/statement-recon/internal/idempotency"
	"github.com/billmatic/statement-recon/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *pgxpool.Pool
	idemStore    *idempotency.Store
	redis        redis.Cmdable
	reconcileSvc *service.ReconcileService
	syncSvc      *service.SyncService
	statementSvc *service.StatementService
	store        service.StatementStore
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	idemStore *idempotency.Store,
	redisClient redis.Cmdable,
	reconcileSvc *service.ReconcileService,
	syncSvc *service.SyncService,
	statementSvc *service.StatementService,
	store service.StatementStore,
) *Router {
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)
	return &Router{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		idemStore:    idemStore,
		redis:        redisClient,
		reconcileSvc: reconcileSvc,
		syncSvc:      syncSvc,
		statementSvc: statementSvc,
		store:        store,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	reconcileHandler := handler.NewReconcileHandler(api.reconcileSvc)
	statementHandler := handler.NewStatementHandler(api.statementSvc)
	syncHandler := handler.NewSyncHandler(api.syncSvc, api.store)

	idem := middleware.IdempotencyMiddleware(api.idemStore, api.logger)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/reconcile/orders/{id}", reconcileHandler.ReconcileOrder)

		r.Get("/v1/customers/{id}/statement", statementHandler.GetStatement)
		r.Get("/v1/customers/{id}/statement.html", statementHandler.GetStatementHTML)
		r.Get("/v1/customers/{id}/statement.xlsx", statementHandler.GetStatementXLSX)

		r.Get("/v1/sync/runs/{id}", syncHandler.GetRun)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.With(idem).Post("/v1/sync/runs", syncHandler.TriggerRun)
			r.With(idem).Post("/v1/statements/generate", statementHandler.GenerateStatements)
		})
	})

	return r
}
