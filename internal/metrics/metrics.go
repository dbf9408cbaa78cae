package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starledger_operations_total",
			Help: "Earn and spend operations by outcome",
		},
		[]string{"kind", "outcome"},
	)

	StarsMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starledger_stars_moved_total",
			Help: "Stars credited or debited",
		},
		[]string{"kind", "source"},
	)

	IdempotentReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starledger_idempotent_replays_total",
			Help: "Requests answered from the idempotency store",
		},
		[]string{"kind"},
	)

	ReconcileMismatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starledger_reconcile_mismatches",
			Help: "Accounts whose cached balance disagrees with their log at the last reconciliation",
		},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starledger_reconcile_runs_total",
			Help: "Reconciliation runs by result",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOperation(kind, outcome string) {
	LedgerOperationsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordStars(kind, source string, amount int64) {
	StarsMovedTotal.WithLabelValues(kind, source).Add(float64(amount))
}

func RecordReplay(kind string) {
	IdempotentReplaysTotal.WithLabelValues(kind).Inc()
}

func RecordReconcile(result string, mismatches int) {
	ReconcileRunsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		ReconcileMismatches.Set(float64(mismatches))
	}
}
