package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundledger/internal/adapter/repository/sqlite"
	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
	"github.com/iho/fundledger/internal/usecase"
	"github.com/iho/fundledger/internal/usecase/mocks"
)

type stack struct {
	db     *sql.DB
	events *usecase.EventUseCase
	guard  *usecase.RestrictedFundGuard
	ops    *usecase.Operations
	calc   *usecase.BalanceCalculator
	ledger *usecase.LedgerUseCase
	outbox *sqlite.OutboxRepository
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	chart := domain.DefaultChartOfAccounts()
	require.NoError(t, sqlite.NewAccountRepository(db).Sync(ctx, chart.Accounts()))

	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())
	entries := sqlite.NewEntryRepository(db)
	reservations := sqlite.NewReservationRepository(db)
	outbox := sqlite.NewOutboxRepository(db)

	builder := usecase.NewTransactionBuilder(
		chart,
		sqlite.NewTxManager(db),
		entries,
		sqlite.NewBalanceRepository(db),
		outbox,
		mocks.NewSequenceIDGenerator("id-"),
		sqlite.NewRetrier(logger, m),
		logger,
		m,
	)
	guard := usecase.NewRestrictedFundGuard(builder, reservations, logger, m)
	ops := usecase.NewOperations(builder, guard, reservations, domain.DefaultIncomePercent, logger)

	return &stack{
		db:     db,
		events: usecase.NewEventUseCase(ops, guard, entries, logger, m),
		guard:  guard,
		ops:    ops,
		calc:   usecase.NewBalanceCalculator(chart, entries, logger, m),
		ledger: usecase.NewLedgerUseCase(sqlite.NewLedgerRepository(db)),
		outbox: outbox,
	}
}

func (s *stack) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	b, err := s.calc.BalanceOf(context.Background(), code)
	require.NoError(t, err)
	return b
}

func (s *stack) pay(t *testing.T, id, amount string) {
	t.Helper()
	_, err := s.events.OnMembershipPaymentConfirmed(context.Background(), usecase.MembershipPaymentInput{
		PaymentID: id,
		UserID:    "user-" + id,
		Amount:    decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newStack(t)

	accounts, err := sqlite.NewAccountRepository(s.db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, len(domain.DefaultAccounts()))

	balances, err := sqlite.NewBalanceRepository(s.db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, balances, len(accounts))
	for _, b := range balances {
		assert.True(t, b.DebitTotal.IsZero())
		assert.True(t, b.CreditTotal.IsZero())
	}
}

func TestSyncKeepsBalances(t *testing.T) {
	s := newStack(t)
	s.pay(t, "pay-1", "100")

	require.NoError(t, sqlite.NewAccountRepository(s.db).Sync(context.Background(), domain.DefaultAccounts()))

	row, err := sqlite.NewBalanceRepository(s.db).Get(context.Background(), domain.AccountCash)
	require.NoError(t, err)
	assert.Equal(t, "100", row.DebitTotal.String())
}

func TestMembershipPaymentSplit(t *testing.T) {
	s := newStack(t)
	s.pay(t, "pay-1", "100")

	assert.Equal(t, "100", s.balance(t, domain.AccountCash).String())
	assert.Equal(t, "70", s.balance(t, domain.AccountMembershipIncome).String())
	assert.Equal(t, "30", s.balance(t, domain.AccountPrizePool).String())

	totals, err := s.ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.True(t, totals.Debits.Equal(totals.Credits))
}

func TestDuplicateDeliveryIsReplayed(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	in := usecase.MembershipPaymentInput{PaymentID: "pay-1", Amount: decimal.RequireFromString("50")}

	first, err := s.events.OnMembershipPaymentConfirmed(ctx, in)
	require.NoError(t, err)
	second, err := s.events.OnMembershipPaymentConfirmed(ctx, in)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, "50", s.balance(t, domain.AccountCash).String())
}

func TestPrizeCannotBePaidTwice(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.pay(t, "pay-1", "200")

	_, err := s.ops.PrizePayout(ctx, usecase.PrizePayoutInput{PrizeID: "prize-1", WinnerID: "u1", Amount: decimal.RequireFromString("20")})
	require.NoError(t, err)

	_, err = s.ops.CommunitySupportReallocation(ctx, usecase.CommunitySupportInput{
		PrizeID:          "prize-1",
		OriginalWinnerID: "u1",
		NewRecipientID:   "u2",
		Amount:           decimal.RequireFromString("20"),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
	assert.Equal(t, "40", s.balance(t, domain.AccountPrizePool).String())
}

func TestEntriesAreAppendOnly(t *testing.T) {
	s := newStack(t)
	s.pay(t, "pay-1", "10")

	_, err := s.db.Exec(`UPDATE ledger_entries SET debit = '1'`)
	assert.Error(t, err)

	_, err = s.db.Exec(`DELETE FROM ledger_entries`)
	assert.Error(t, err)
}

func TestUnknownAccountRejected(t *testing.T) {
	s := newStack(t)
	_, err := s.db.Exec(`INSERT INTO ledger_entries (id, transaction_id, transaction_type, account_code, debit, credit, posting_date, created_at)
		VALUES ('x', 'tx', 'adjustment', '9999', '1', '0', '2026-01-01', '2026-01-01')`)
	assert.Error(t, err)
}

func TestReservationLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.pay(t, "pay-1", "100")

	decision, err := s.events.OnDrawCreationRequested(ctx, usecase.DrawRequest{
		DrawID: "draw-1",
		Prizes: []domain.Prize{{Name: "first", Amount: decimal.RequireFromString("20")}},
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	status, err := s.guard.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20", status.Reserved.String())
	assert.Equal(t, "10", status.Available.String())

	refused, err := s.events.OnDrawCreationRequested(ctx, usecase.DrawRequest{
		DrawID: "draw-2",
		Prizes: []domain.Prize{{Name: "first", Amount: decimal.RequireFromString("15")}},
	})
	require.NoError(t, err)
	assert.False(t, refused.Allowed)
	assert.Equal(t, "5", refused.Shortfall.String())

	_, err = s.ops.PrizePayout(ctx, usecase.PrizePayoutInput{
		PrizeID: "prize-1", DrawID: "draw-1", WinnerID: "u1", Amount: decimal.RequireFromString("20"),
	})
	require.NoError(t, err)

	res, err := s.guard.Reservation(ctx, "draw-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConsumed, res.Status)
	assert.True(t, res.Remaining.IsZero())

	active, err := s.guard.ActiveReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = s.guard.Reservation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestConcurrentPayoutsNeverOverdraw(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.pay(t, "pay-1", "100")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paid     int
		refused  int
		failures []error
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ops.PrizePayout(ctx, usecase.PrizePayoutInput{
				PrizeID:  fmt.Sprintf("prize-%d", i),
				WinnerID: "u1",
				Amount:   decimal.RequireFromString("7"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case errors.Is(err, domain.ErrInsufficientRestrictedFunds):
				refused++
			default:
				failures = append(failures, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, 4, paid)
	assert.Equal(t, 6, refused)
	assert.Equal(t, "2", s.balance(t, domain.AccountPrizePool).String())
}

func TestOutboxRoundTrip(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.pay(t, "pay-1", "10")

	events, err := s.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeTransactionCommitted, events[0].EventType)
	assert.Equal(t, "10.00", events[0].Payload["amount"])

	txID := events[0].AggregateID
	require.NoError(t, s.outbox.MarkPublished(ctx, events[0].ID, time.Now()))

	history, err := s.outbox.GetByAggregate(ctx, domain.AggregateTypeTransaction, txID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Published)
	require.NotNil(t, history[0].PublishedAt)

	events, err = s.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, s.outbox.DeletePublished(ctx, time.Now().Add(time.Minute)))
	history, err = s.outbox.GetByAggregate(ctx, domain.AggregateTypeTransaction, txID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
