package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository answers whole-ledger questions.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency sums every debit and every credit ever posted. The two
// totals are equal on a healthy ledger.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	totals, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum ledger entries: %w", err)
	}
	return numericToDecimal(totals.TotalDebits), numericToDecimal(totals.TotalCredits), nil
}
