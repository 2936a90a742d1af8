package postgres

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/postgres/generated"
	"github.com/iho/fundledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Append inserts entries within tx. A unique index violation means the
// business event was already posted.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entries []*domain.LedgerEntry) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	queries := r.queries.WithTx(pgxTx)

	for _, e := range entries {
		metadata, err := marshalMetadata(e.Metadata)
		if err != nil {
			return err
		}

		if err := queries.CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
			ID:              e.ID,
			TransactionID:   e.TransactionID,
			TransactionType: string(e.TransactionType),
			AccountCode:     e.AccountCode,
			Debit:           decimalToNumeric(e.Debit),
			Credit:          decimalToNumeric(e.Credit),
			Description:     e.Description,
			ReferenceType:   e.ReferenceType,
			ReferenceID:     e.ReferenceID,
			UserID:          e.UserID,
			Metadata:        metadata,
			PostingDate:     timeToPgTimestamptz(e.PostingDate),
			CreatedAt:       timeToPgTimestamptz(e.CreatedAt),
		}); err != nil {
			return mapError(err)
		}
	}

	return nil
}

// GetByTransaction retrieves the entries of one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.GetEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return rowsToEntries(rows), nil
}

// GetByAccount retrieves entries of an account, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountCode: accountCode,
		Limit:       int32(limit),
		Offset:      int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToEntries(rows), nil
}

// GetByReference retrieves the entries posted for an external record.
func (r *EntryRepository) GetByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.GetEntriesByReference(ctx, generated.GetEntriesByReferenceParams{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	})
	if err != nil {
		return nil, err
	}
	return rowsToEntries(rows), nil
}

// SumByAccount returns the raw debit and credit totals of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error) {
	row, err := r.queries.SumEntriesByAccount(ctx, accountCode)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(row.TotalDebits), numericToDecimal(row.TotalCredits), nil
}

func rowsToEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	var metadata map[string]any
	if row.Metadata != nil {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}

	return &domain.LedgerEntry{
		ID:              row.ID,
		TransactionID:   row.TransactionID,
		TransactionType: domain.TransactionType(row.TransactionType),
		AccountCode:     row.AccountCode,
		Debit:           numericToDecimal(row.Debit),
		Credit:          numericToDecimal(row.Credit),
		Description:     row.Description,
		ReferenceType:   row.ReferenceType,
		ReferenceID:     row.ReferenceID,
		UserID:          row.UserID,
		Metadata:        metadata,
		PostingDate:     row.PostingDate.Time,
		CreatedAt:       row.CreatedAt.Time,
	}
}
