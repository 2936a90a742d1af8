package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/postgres/generated"
	"github.com/iho/fundledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository over
// account_balances.
type BalanceRepository struct {
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{queries: generated.New(db)}
}

// GetForUpdate locks the rows for codes. The query orders by code so
// concurrent writers always lock in the same order.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.AccountBalance, error) {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := r.queries.WithTx(pgxTx).GetBalancesForUpdate(ctx, codes)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.AccountBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}
	return balances, nil
}

// Apply adds debit and credit to the running totals of code.
func (r *BalanceRepository) Apply(ctx context.Context, tx usecase.Transaction, code string, debit, credit decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	return r.queries.WithTx(pgxTx).ApplyBalance(ctx, generated.ApplyBalanceParams{
		AccountCode: code,
		Debit:       decimalToNumeric(debit),
		Credit:      decimalToNumeric(credit),
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
	})
}

// SetEncumbered sets the reserved amount of code.
func (r *BalanceRepository) SetEncumbered(ctx context.Context, tx usecase.Transaction, code string, encumbered decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	return r.queries.WithTx(pgxTx).SetEncumbered(ctx, generated.SetEncumberedParams{
		AccountCode: code,
		Encumbered:  decimalToNumeric(encumbered),
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
	})
}

// Get retrieves the balance row of code.
func (r *BalanceRepository) Get(ctx context.Context, code string) (*domain.AccountBalance, error) {
	row, err := r.queries.GetBalance(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.UnknownAccountError{Code: code}
		}
		return nil, err
	}
	return rowToBalance(row), nil
}

// List returns all balance rows ordered by code.
func (r *BalanceRepository) List(ctx context.Context) ([]*domain.AccountBalance, error) {
	rows, err := r.queries.ListBalances(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.AccountBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}
	return balances, nil
}

func rowToBalance(row generated.AccountBalance) *domain.AccountBalance {
	return &domain.AccountBalance{
		AccountCode: row.AccountCode,
		DebitTotal:  numericToDecimal(row.DebitTotal),
		CreditTotal: numericToDecimal(row.CreditTotal),
		Encumbered:  numericToDecimal(row.Encumbered),
		Version:     row.Version,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
