package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCommitted *prometheus.CounterVec
	TransactionsRejected  *prometheus.CounterVec
	TransactionDuration   prometheus.Histogram
	TransactionAmount     prometheus.Histogram

	// Restricted fund metrics
	ReservationDecisions      *prometheus.CounterVec
	ReservationsReleased      prometheus.Counter
	RestrictedBalance         prometheus.Gauge
	RestrictedNegativeBalance prometheus.Counter
	GuardWaitDuration         prometheus.Histogram

	// Inbound event metrics
	EventsProcessed *prometheus.CounterVec
	EventsReplayed  *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// Reconciliation metrics
	ReconciliationDiscrepancies prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors  *prometheus.CounterVec
	DBRetries prometheus.Counter

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_transactions_committed_total",
				Help: "Total number of committed ledger transactions",
			},
			[]string{"type"},
		),
		TransactionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_transactions_rejected_total",
				Help: "Total number of transactions rejected before or during commit",
			},
			[]string{"reason"},
		),
		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundledger_transaction_duration_seconds",
			Help:    "Duration of transaction commits",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundledger_transaction_amount",
			Help:    "Total debit amount per committed transaction",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Restricted fund metrics
		ReservationDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_reservation_decisions_total",
				Help: "Restricted fund decisions by outcome",
			},
			[]string{"outcome"},
		),
		ReservationsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_reservations_released_total",
			Help: "Total number of released reservations",
		}),
		RestrictedBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundledger_restricted_balance",
			Help: "Last observed restricted fund balance",
		}),
		RestrictedNegativeBalance: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_restricted_negative_balance_total",
			Help: "Times a negative restricted fund balance was observed",
		}),
		GuardWaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundledger_guard_wait_seconds",
			Help:    "Time spent waiting for the restricted account lock",
			Buckets: prometheus.DefBuckets,
		}),

		// Inbound event metrics
		EventsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_events_processed_total",
				Help: "Inbound events processed",
			},
			[]string{"event", "status"},
		),
		EventsReplayed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_events_replayed_total",
				Help: "Inbound events deduplicated by reference",
			},
			[]string{"event"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_outbox_failures_total",
			Help: "Outbox events that failed to publish",
		}),

		ReconciliationDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundledger_reconciliation_discrepancies",
			Help: "Accounts whose running balance differs from their entries",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundledger_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_db_retries_total",
			Help: "Transactions retried after deadlock or serialization failure",
		}),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}
