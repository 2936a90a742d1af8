package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares running balance rows with the entries
// they summarise.
type ReconciliationUseCase struct {
	chart       *domain.ChartOfAccounts
	balanceRepo BalanceRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	chart *domain.ChartOfAccounts,
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		chart:       chart,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
		metrics:     metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountCode       string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount checks one account's running totals against the sum of
// its entries.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, code string) (*ReconciliationResult, error) {
	acc, err := uc.chart.Get(code)
	if err != nil {
		return nil, err
	}

	row, err := uc.balanceRepo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	debits, credits, err := uc.entryRepo.SumByAccount(ctx, code)
	if err != nil {
		return nil, err
	}

	recorded := row.Balance(acc.Type)
	calculated := acc.SignedBalance(debits, credits)

	result := &ReconciliationResult{
		AccountCode:       code,
		RecordedBalance:   recorded,
		CalculatedBalance: calculated,
		Difference:        recorded.Sub(calculated),
		IsReconciled:      row.DebitTotal.Equal(debits) && row.CreditTotal.Equal(credits),
		LastChecked:       time.Now().UTC(),
	}

	if !result.IsReconciled {
		uc.logger.Error().
			Str("account_code", code).
			Str("recorded", recorded.StringFixed(domain.AmountScale)).
			Str("calculated", calculated.StringFixed(domain.AmountScale)).
			Msg("running balance does not match entries")
	}

	return result, nil
}

// ReconcileAllAccounts reconciles every account in the chart
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	accounts := uc.chart.Accounts()

	results := make([]*ReconciliationResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := uc.ReconcileAccount(ctx, account.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", account.Code, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// CheckLedgerConsistency verifies double-entry bookkeeping consistency
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totalDebits, totalCredits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if !totalDebits.Equal(totalCredits) {
		return fmt.Errorf(
			"%w: debits=%s credits=%s difference=%s",
			ErrInconsistentLedger,
			totalDebits.String(),
			totalCredits.String(),
			totalDebits.Sub(totalCredits).String(),
		)
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	// RestrictedNegative is set when the restricted account's entries sum
	// to a negative balance.
	RestrictedNegative bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	ledgerErr := uc.CheckLedgerConsistency(ctx)

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: ledgerErr == nil,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
		if uc.chart.IsRestricted(result.AccountCode) && result.CalculatedBalance.IsNegative() {
			report.RestrictedNegative = true
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationDiscrepancies.Set(float64(len(report.Discrepancies)))
	}

	return report, nil
}
