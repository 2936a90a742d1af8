package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// BalanceCalculator derives account balances from committed entries.
type BalanceCalculator struct {
	chart     *domain.ChartOfAccounts
	entryRepo EntryRepository
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewBalanceCalculator creates a new BalanceCalculator.
func NewBalanceCalculator(chart *domain.ChartOfAccounts, entryRepo EntryRepository, logger zerolog.Logger, metrics *metrics.Metrics) *BalanceCalculator {
	return &BalanceCalculator{
		chart:     chart,
		entryRepo: entryRepo,
		logger:    logger.With().Str("component", "balance_calculator").Logger(),
		metrics:   metrics,
	}
}

// BalanceOf returns the signed balance of code. A negative restricted
// balance is returned as is and reported.
func (c *BalanceCalculator) BalanceOf(ctx context.Context, code string) (decimal.Decimal, error) {
	acc, err := c.chart.Get(code)
	if err != nil {
		c.logger.Error().Err(err).Str("account_code", code).Msg("balance requested for account outside chart")
		return decimal.Zero, err
	}

	debits, credits, err := c.entryRepo.SumByAccount(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	balance := acc.SignedBalance(debits, credits)
	if acc.Restricted && balance.IsNegative() {
		c.reportNegative(code, balance)
	}

	return balance, nil
}

// DisplayBalanceOf is BalanceOf with the restricted account clamped at zero.
func (c *BalanceCalculator) DisplayBalanceOf(ctx context.Context, code string) (decimal.Decimal, error) {
	balance, err := c.BalanceOf(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if c.chart.IsRestricted(code) && balance.IsNegative() {
		return decimal.Zero, nil
	}
	return balance, nil
}

func (c *BalanceCalculator) reportNegative(code string, balance decimal.Decimal) {
	c.logger.Error().
		Str("account_code", code).
		Str("balance", balance.StringFixed(domain.AmountScale)).
		Msg("restricted fund balance is negative")
	if c.metrics != nil {
		c.metrics.RestrictedNegativeBalance.Inc()
	}
}
