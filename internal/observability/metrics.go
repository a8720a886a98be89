package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpDurationHistogram   *prometheus.HistogramVec
	balanceMismatchCounter  *prometheus.CounterVec
	ordersReconciledCounter *prometheus.CounterVec
	statementsCounter       *prometheus.CounterVec
	idempotencyCounter      *prometheus.CounterVec
	workerRunCounter        *prometheus.CounterVec
	syncCustomersGauge      prometheus.Gauge
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		balanceMismatchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balance_mismatch_total",
			Help: "Orders whose outstanding amount diverged from the ledger beyond tolerance",
		}, []string{"external_status"})

		ordersReconciledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_reconciled_total",
			Help: "Reconciled orders by resulting payment status",
		}, []string{"payment_status"})

		statementsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statements_generated_total",
			Help: "Customer statements produced by format",
		}, []string{"format"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		syncCustomersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_customers_with_balance",
			Help: "Customers carrying a positive balance after the last sync",
		})

		prometheus.MustRegister(
			httpDurationHistogram,
			balanceMismatchCounter,
			ordersReconciledCounter,
			statementsCounter,
			idempotencyCounter,
			workerRunCounter,
			syncCustomersGauge,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementBalanceMismatch(externalStatus string) {
	if balanceMismatchCounter == nil {
		return
	}
	balanceMismatchCounter.WithLabelValues(externalStatus).Inc()
}

func IncrementOrderReconciled(paymentStatus string) {
	if ordersReconciledCounter == nil {
		return
	}
	ordersReconciledCounter.WithLabelValues(paymentStatus).Inc()
}

func IncrementStatementGenerated(format string) {
	if statementsCounter == nil {
		return
	}
	statementsCounter.WithLabelValues(format).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func SetCustomersWithBalance(count int) {
	if syncCustomersGauge == nil {
		return
	}
	syncCustomersGauge.Set(float64(count))
}
