package usecase

import (
	"context"

	"github.com/iho/fundledger/internal/domain"
)

// EntryUseCase handles entry queries.
type EntryUseCase struct {
	chart     *domain.ChartOfAccounts
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(chart *domain.ChartOfAccounts, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		chart:     chart,
		entryRepo: entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountCode string
	Limit       int
	Offset      int
}

// GetEntriesByAccount lists entries for an account, newest first.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.LedgerEntry, error) {
	if _, err := uc.chart.Get(input.AccountCode); err != nil {
		return nil, err
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.entryRepo.GetByAccount(ctx, input.AccountCode, input.Limit, input.Offset)
}

// GetEntriesByTransaction lists the entries of one transaction.
func (uc *EntryUseCase) GetEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	entries, err := uc.entryRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrTransactionNotFound
	}
	return entries, nil
}

// GetEntriesByReference lists entries posted for an external record.
func (uc *EntryUseCase) GetEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	if referenceType == "" {
		return nil, domain.ErrMissingReference
	}
	if err := domain.ValidateReference(referenceID); err != nil {
		return nil, err
	}
	return uc.entryRepo.GetByReference(ctx, referenceType, referenceID)
}
