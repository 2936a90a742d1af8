package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

const entryColumns = `id, transaction_id, transaction_type, account_code, debit, credit, description,
	reference_type, reference_id, user_id, metadata, posting_date, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Append inserts entries within tx.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entries []*domain.LedgerEntry) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		var metadata sql.NullString
		if len(e.Metadata) > 0 {
			b, err := json.Marshal(e.Metadata)
			if err != nil {
				return err
			}
			metadata = sql.NullString{String: string(b), Valid: true}
		}

		if _, err := sqlTx.ExecContext(ctx, `INSERT INTO ledger_entries (`+entryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.TransactionID, string(e.TransactionType), e.AccountCode,
			e.Debit.String(), e.Credit.String(), e.Description,
			e.ReferenceType, e.ReferenceID, e.UserID, metadata,
			formatTime(e.PostingDate), formatTime(e.CreatedAt),
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// GetByTransaction retrieves the entries of one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE transaction_id = ? ORDER BY id`, transactionID)
}

// GetByAccount retrieves entries of an account, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE account_code = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, accountCode, limit, offset)
}

// GetByReference retrieves the entries posted for an external record.
func (r *EntryRepository) GetByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE reference_type = ? AND reference_id = ?
		ORDER BY created_at, id`, referenceType, referenceID)
}

// SumByAccount returns the raw debit and credit totals of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error) {
	return sumEntries(ctx, r.db, `SELECT debit, credit FROM ledger_entries WHERE account_code = ?`, accountCode)
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (*domain.LedgerEntry, error) {
	var (
		e                     domain.LedgerEntry
		txType, debit, credit string
		metadata              sql.NullString
		posting, created      string
	)

	if err := rows.Scan(&e.ID, &e.TransactionID, &txType, &e.AccountCode, &debit, &credit, &e.Description,
		&e.ReferenceType, &e.ReferenceID, &e.UserID, &metadata, &posting, &created); err != nil {
		return nil, err
	}

	var err error
	e.TransactionType = domain.TransactionType(txType)
	if e.Debit, err = parseDecimal(debit); err != nil {
		return nil, err
	}
	if e.Credit, err = parseDecimal(credit); err != nil {
		return nil, err
	}
	if e.PostingDate, err = parseTime(posting); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// sumEntries adds up debit and credit columns exactly.
func sumEntries(ctx context.Context, q querier, query string, args ...any) (decimal.Decimal, decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	debits, credits := decimal.Zero, decimal.Zero
	for rows.Next() {
		var d, c string
		if err := rows.Scan(&d, &c); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		dv, err := parseDecimal(d)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		cv, err := parseDecimal(c)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		debits = debits.Add(dv)
		credits = credits.Add(cv)
	}
	return debits, credits, rows.Err()
}
