package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iho/fundledger/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// Sync upserts the chart and creates missing balance rows in one
// transaction.
func (r *AccountRepository) Sync(ctx context.Context, accounts []domain.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(r.now())
	for _, acc := range accounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (code, name, type, restricted, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (code) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				restricted = excluded.restricted,
				description = excluded.description,
				updated_at = excluded.updated_at`,
			acc.Code, acc.Name, string(acc.Type), acc.Restricted, acc.Description, now, now,
		); err != nil {
			return fmt.Errorf("upsert account %s: %w", acc.Code, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO account_balances (account_code, updated_at) VALUES (?, ?)
			ON CONFLICT (account_code) DO NOTHING`,
			acc.Code, now,
		); err != nil {
			return fmt.Errorf("create balance row %s: %w", acc.Code, err)
		}
	}

	return tx.Commit()
}

// List returns the stored chart ordered by code.
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, type, restricted, description FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var acc domain.Account
		var accType string
		if err := rows.Scan(&acc.Code, &acc.Name, &accType, &acc.Restricted, &acc.Description); err != nil {
			return nil, err
		}
		acc.Type = domain.AccountType(accType)
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
