package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/fundledger/internal/adapter/http"
	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/adapter/http/handler"
	"github.com/iho/fundledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/fundledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fundledger/internal/adapter/repository/redis"
	sqliteRepo "github.com/iho/fundledger/internal/adapter/repository/sqlite"
	"github.com/iho/fundledger/internal/infrastructure/chart"
	"github.com/iho/fundledger/internal/infrastructure/config"
	"github.com/iho/fundledger/internal/infrastructure/eventpublisher"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
	"github.com/iho/fundledger/internal/infrastructure/postgres"
	"github.com/iho/fundledger/internal/infrastructure/redis"
	"github.com/iho/fundledger/internal/usecase"
)

// limiterCleanupInterval is how often per-IP rate limiters are dropped.
const limiterCleanupInterval = time.Hour

// storage is the set of repositories behind one storage driver.
type storage struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	entries      usecase.EntryRepository
	balances     usecase.BalanceRepository
	reservations usecase.ReservationRepository
	outbox       usecase.OutboxRepository
	ledger       usecase.LedgerRepository
	retrier      usecase.Retrier
	check        handler.Check
	close        func()
}

type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	closers   []func()
}

// buildApp connects storage and wires every component. The caller must
// call close.
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	m := metrics.New(reg)

	coa, err := chart.Load(cfg.ChartOfAccountsFile)
	if err != nil {
		return nil, err
	}

	st, err := openStorage(ctx, cfg, logger, m)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	checks := []handler.Check{st.check}

	builder := usecase.NewTransactionBuilder(
		coa,
		st.txManager,
		st.entries,
		st.balances,
		st.outbox,
		postgresRepo.NewULIDGenerator(),
		st.retrier,
		logger,
		m,
	)

	var (
		idempotencyStore usecase.IdempotencyStore
		publisher        eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		logger.Info().Msg("connected to redis")

		builder.WithStatusCache(redisRepo.NewCache(client, m), cfg.FundStatusCacheTTL)
		idempotencyStore = redisRepo.NewIdempotencyStore(client, m)
		publisher = redisRepo.NewPublisher(client, cfg.RedisEventsChannel, m)
		checks = append(checks, handler.RedisCheck(client))
	}

	incomePct, err := cfg.IncomePercent()
	if err != nil {
		return nil, err
	}

	guard := usecase.NewRestrictedFundGuard(builder, st.reservations, logger, m)
	ops := usecase.NewOperations(builder, guard, st.reservations, incomePct, logger)
	events := usecase.NewEventUseCase(ops, guard, st.entries, logger, m)
	calc := usecase.NewBalanceCalculator(coa, st.entries, logger, m)
	accountUC := usecase.NewAccountUseCase(coa, st.accounts, calc)

	if err := accountUC.SyncChart(ctx); err != nil {
		return nil, fmt.Errorf("sync chart of accounts: %w", err)
	}

	validator := dto.NewValidationHelper()

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EventHandler:   handler.NewEventHandler(events, validator),
		DrawHandler:    handler.NewDrawHandler(events, guard, validator),
		AccountHandler: handler.NewAccountHandler(accountUC),
		EntryHandler:   handler.NewEntryHandler(usecase.NewEntryUseCase(coa, st.entries)),
		LedgerHandler: handler.NewLedgerHandler(
			usecase.NewLedgerUseCase(st.ledger),
			usecase.NewReconciliationUseCase(coa, st.balances, st.entries, st.ledger, logger, m),
		),
		HealthHandler:    handler.NewHealthHandler(checks...),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.limiter,
		Logger:           logger,
		Metrics:          m,
		Gatherer:         reg,
	})

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  publisher,
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	return a, nil
}

// openStorage opens the configured storage driver.
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := sqliteRepo.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")

		return &storage{
			txManager:    sqliteRepo.NewTxManager(db),
			accounts:     sqliteRepo.NewAccountRepository(db),
			entries:      sqliteRepo.NewEntryRepository(db),
			balances:     sqliteRepo.NewBalanceRepository(db),
			reservations: sqliteRepo.NewReservationRepository(db),
			outbox:       sqliteRepo.NewOutboxRepository(db),
			ledger:       sqliteRepo.NewLedgerRepository(db),
			retrier:      sqliteRepo.NewRetrier(logger, m),
			check:        handler.SQLiteCheck(db),
			close:        func() { db.Close() },
		}, nil

	default:
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:      cfg.DatabaseURL,
			MaxConns:         cfg.DatabaseMaxConns,
			MinConns:         cfg.DatabaseMinConns,
			StatementTimeout: cfg.DatabaseTimeout,
			LockTimeout:      cfg.DatabaseLockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")

		tm := postgresRepo.NewTxManager(pool)
		return &storage{
			txManager:    tm,
			accounts:     postgresRepo.NewAccountRepository(pool, tm),
			entries:      postgresRepo.NewEntryRepository(pool),
			balances:     postgresRepo.NewBalanceRepository(pool),
			reservations: postgresRepo.NewReservationRepository(pool),
			outbox:       postgresRepo.NewOutboxRepository(pool),
			ledger:       postgresRepo.NewLedgerRepository(pool),
			retrier:      postgresRepo.NewRetrier(logger, m),
			check:        handler.PostgresCheck(pool),
			close:        pool.Close,
		}, nil
	}
}

// run serves HTTP and relays outbox events until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.cfg.HTTPPort)
	if err != nil {
		return err
	}
	return a.serve(ctx, ln)
}

func (a *app) serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
		IdleTimeout:  a.cfg.HTTPIdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	if a.limiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(limiterCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					a.limiter.CleanupLimiters(time.Hour)
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)

	cancelWorkers()
	wg.Wait()

	return errors.Join(serveErr, shutdownErr)
}

// close releases connections in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
