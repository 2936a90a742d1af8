package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/fundledger/internal/adapter/http/handler"
	"github.com/iho/fundledger/internal/adapter/http/middleware"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
	"github.com/iho/fundledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EventHandler   *handler.EventHandler
	DrawHandler    *handler.DrawHandler
	AccountHandler *handler.AccountHandler
	EntryHandler   *handler.EntryHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Inbound business events
		r.Route("/events", func(r chi.Router) {
			r.Post("/membership-payments", cfg.EventHandler.MembershipPayment)
			r.Post("/prize-claims", cfg.EventHandler.PrizeClaim)
			r.Post("/prize-expirations", cfg.EventHandler.PrizeExpiration)
			r.Post("/referral-bonuses", cfg.EventHandler.ReferralBonus)
			r.Post("/tier-bonuses", cfg.EventHandler.TierBonus)
			r.Post("/withdrawals", cfg.EventHandler.Withdrawal)
			r.Post("/withdrawals/{id}/complete", cfg.EventHandler.CompleteWithdrawal)
			r.Post("/withdrawals/{id}/reject", cfg.EventHandler.RejectWithdrawal)
		})

		// Draw reservations against the restricted fund
		r.Route("/draws", func(r chi.Router) {
			r.Post("/check", cfg.DrawHandler.Check)
			r.Post("/", cfg.DrawHandler.Create)
			r.Get("/", cfg.DrawHandler.List)
			r.Get("/{id}", cfg.DrawHandler.Get)
			r.Delete("/{id}", cfg.DrawHandler.Cancel)
		})
		r.Get("/fund/status", cfg.DrawHandler.FundStatus)

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{code}", cfg.AccountHandler.Get)
			r.Get("/{code}/balance", cfg.AccountHandler.Balance)
			r.Get("/{code}/entries", cfg.EntryHandler.ListByAccount)
		})

		r.Get("/transactions/{id}/entries", cfg.EntryHandler.ListByTransaction)
		r.Get("/entries", cfg.EntryHandler.ListByReference)

		// Ledger-wide checks
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		r.Get("/ledger/reconciliation", cfg.LedgerHandler.Reconciliation)
	})

	return r
}
