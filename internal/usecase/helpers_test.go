package usecase_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
	"github.com/iho/fundledger/internal/usecase"
	"github.com/iho/fundledger/internal/usecase/mocks"
)

type harness struct {
	chart   *domain.ChartOfAccounts
	store   *mocks.Store
	cache   *mocks.MemoryCache
	metrics *metrics.Metrics
	builder *usecase.TransactionBuilder
	guard   *usecase.RestrictedFundGuard
	ops     *usecase.Operations
	events  *usecase.EventUseCase
	calc    *usecase.BalanceCalculator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	chart := domain.DefaultChartOfAccounts()
	store := mocks.NewSeededStore(chart)
	cache := mocks.NewMemoryCache()
	m := metrics.New(prometheus.NewRegistry())
	logger := zerolog.Nop()

	builder := usecase.NewTransactionBuilder(
		chart,
		store,
		store.Entries(),
		store.Balances(),
		store.Outbox(),
		mocks.NewSequenceIDGenerator("id-"),
		nil,
		logger,
		m,
	).WithStatusCache(cache, 0)

	guard := usecase.NewRestrictedFundGuard(builder, store.Reservations(), logger, m)
	ops := usecase.NewOperations(builder, guard, store.Reservations(), domain.DefaultIncomePercent, logger)

	return &harness{
		chart:   chart,
		store:   store,
		cache:   cache,
		metrics: m,
		builder: builder,
		guard:   guard,
		ops:     ops,
		events:  usecase.NewEventUseCase(ops, guard, store.Entries(), logger, m),
		calc:    usecase.NewBalanceCalculator(chart, store.Entries(), logger, m),
	}
}

// fundPool credits the prize pool directly from cash.
func (h *harness) fundPool(t *testing.T, amount string) {
	t.Helper()
	amt := decimal.RequireFromString(amount)
	_, err := h.builder.Commit(context.Background(), usecase.CommitInput{
		Type: domain.TransactionTypeAdjustment,
		Entries: []*domain.LedgerEntry{
			domain.NewDebit(domain.AccountCash, amt, "seed"),
			domain.NewCredit(domain.AccountPrizePool, amt, "seed"),
		},
	})
	if err != nil {
		t.Fatalf("failed to fund pool: %v", err)
	}
}

func (h *harness) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	b, err := h.calc.BalanceOf(context.Background(), code)
	if err != nil {
		t.Fatalf("BalanceOf(%s): %v", code, err)
	}
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func prizes(amounts ...string) []domain.Prize {
	out := make([]domain.Prize, len(amounts))
	for i, a := range amounts {
		out[i] = domain.Prize{Name: "prize", Amount: dec(a)}
	}
	return out
}

func payoutEntries(amount decimal.Decimal) []*domain.LedgerEntry {
	return []*domain.LedgerEntry{
		domain.NewDebit(domain.AccountPrizePool, amount, "payout"),
		domain.NewCredit(domain.AccountMemberWallet, amount, "payout"),
	}
}
