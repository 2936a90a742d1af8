package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// LedgerTotals are the debit and credit totals over every committed entry.
type LedgerTotals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// CheckConsistency verifies that the ledger is balanced.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	_, err := uc.Totals(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Totals returns ledger-wide totals, with ErrInconsistentLedger when they differ.
func (uc *LedgerUseCase) Totals(ctx context.Context) (*LedgerTotals, error) {
	debits, credits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	totals := &LedgerTotals{Debits: debits, Credits: credits}

	// Every transaction is balanced, so the whole ledger must be too.
	if !debits.Equal(credits) {
		return totals, ErrInconsistentLedger
	}

	return totals, nil
}
