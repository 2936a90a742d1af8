package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/adapter/repository/postgres"
	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
	infra "github.com/iho/fundledger/internal/infrastructure/postgres"
	"github.com/iho/fundledger/internal/usecase"
)

// TestDB provides a migrated PostgreSQL database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped when the variable is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "internal/infrastructure/postgres/migrations"
	for _, candidate := range []string{
		migrationsPath,
		"../../" + migrationsPath,
		"../../../" + migrationsPath,
	} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := infra.RunMigrations(dbURL, migrationsPath, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(pool.Close)
	return db
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events, fund_reservations, ledger_entries, account_balances, accounts CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Stack is the ledger wired over PostgreSQL.
type Stack struct {
	Chart        *domain.ChartOfAccounts
	Builder      *usecase.TransactionBuilder
	Guard        *usecase.RestrictedFundGuard
	Ops          *usecase.Operations
	Events       *usecase.EventUseCase
	Calculator   *usecase.BalanceCalculator
	Ledger       *usecase.LedgerUseCase
	Recon        *usecase.ReconciliationUseCase
	Reservations *postgres.ReservationRepository
	Outbox       *postgres.OutboxRepository
	Metrics      *metrics.Metrics
}

// NewStack truncates the database, syncs the default chart and wires every
// use case against it.
func (db *TestDB) NewStack(ctx context.Context) *Stack {
	db.t.Helper()
	db.TruncateAll(ctx)

	chart := domain.DefaultChartOfAccounts()
	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())

	tm := postgres.NewTxManager(db.Pool)
	accounts := postgres.NewAccountRepository(db.Pool, tm)
	if err := accounts.Sync(ctx, chart.Accounts()); err != nil {
		db.t.Fatalf("failed to sync chart: %v", err)
	}

	entries := postgres.NewEntryRepository(db.Pool)
	balances := postgres.NewBalanceRepository(db.Pool)
	reservations := postgres.NewReservationRepository(db.Pool)
	outbox := postgres.NewOutboxRepository(db.Pool)
	ledger := postgres.NewLedgerRepository(db.Pool)

	builder := usecase.NewTransactionBuilder(
		chart, tm, entries, balances, outbox,
		postgres.NewULIDGenerator(),
		postgres.NewRetrier(logger, m),
		logger, m,
	)
	guard := usecase.NewRestrictedFundGuard(builder, reservations, logger, m)
	ops := usecase.NewOperations(builder, guard, reservations, domain.DefaultIncomePercent, logger)

	return &Stack{
		Chart:        chart,
		Builder:      builder,
		Guard:        guard,
		Ops:          ops,
		Events:       usecase.NewEventUseCase(ops, guard, entries, logger, m),
		Calculator:   usecase.NewBalanceCalculator(chart, entries, logger, m),
		Ledger:       usecase.NewLedgerUseCase(ledger),
		Recon:        usecase.NewReconciliationUseCase(chart, balances, entries, ledger, logger, m),
		Reservations: reservations,
		Outbox:       outbox,
		Metrics:      m,
	}
}

// FundPool moves amount from cash into the prize pool.
func (s *Stack) FundPool(t *testing.T, ctx context.Context, amount decimal.Decimal) {
	t.Helper()
	_, err := s.Builder.Commit(ctx, usecase.CommitInput{
		Type: domain.TransactionTypeAdjustment,
		Entries: []*domain.LedgerEntry{
			domain.NewDebit(domain.AccountCash, amount, "seed"),
			domain.NewCredit(domain.AccountPrizePool, amount, "seed"),
		},
	})
	if err != nil {
		t.Fatalf("failed to fund pool: %v", err)
	}
}
