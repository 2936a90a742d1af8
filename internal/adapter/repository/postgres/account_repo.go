package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/postgres/generated"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	tm      *TxManager
	queries *generated.Queries
	now     func() time.Time
}

// NewAccountRepository creates a new AccountRepository. Sync runs in its own
// transaction started from tm.
func NewAccountRepository(db generated.DBTX, tm *TxManager) *AccountRepository {
	return &AccountRepository{
		tm:      tm,
		queries: generated.New(db),
		now:     time.Now,
	}
}

// Sync upserts the chart and creates missing balance rows.
func (r *AccountRepository) Sync(ctx context.Context, accounts []domain.Account) error {
	tx, err := r.tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	queries := r.queries.WithTx(pgxTx)
	now := timeToPgTimestamptz(r.now().UTC())

	for _, acc := range accounts {
		if err := queries.UpsertAccount(ctx, generated.UpsertAccountParams{
			Code:        acc.Code,
			Name:        acc.Name,
			Type:        string(acc.Type),
			Restricted:  acc.Restricted,
			Description: acc.Description,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("upsert account %s: %w", acc.Code, err)
		}

		if err := queries.CreateAccountBalance(ctx, generated.CreateAccountBalanceParams{
			AccountCode: acc.Code,
			UpdatedAt:   now,
		}); err != nil {
			return fmt.Errorf("create balance row %s: %w", acc.Code, err)
		}
	}

	return tx.Commit(ctx)
}

// List returns the stored chart ordered by code.
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, domain.Account{
			Code:        row.Code,
			Name:        row.Name,
			Type:        domain.AccountType(row.Type),
			Restricted:  row.Restricted,
			Description: row.Description,
		})
	}

	return accounts, nil
}
