package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

const balanceColumns = `account_code, debit_total, credit_total, encumbered, version, updated_at`

// BalanceRepository implements usecase.BalanceRepository. The immediate
// transaction already holds the database write lock, so GetForUpdate is a
// plain read.
type BalanceRepository struct {
	db *sql.DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetForUpdate reads the rows for codes in code order.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.AccountBalance, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, nil
	}

	marks, args := placeholders(codes)
	return queryBalances(ctx, sqlTx, `SELECT `+balanceColumns+` FROM account_balances
		WHERE account_code IN (`+marks+`) ORDER BY account_code`, args...)
}

// Apply adds debit and credit to the running totals of code.
func (r *BalanceRepository) Apply(ctx context.Context, tx usecase.Transaction, code string, debit, credit decimal.Decimal, updatedAt time.Time) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	current, err := getBalance(ctx, sqlTx, code)
	if err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `UPDATE account_balances
		SET debit_total = ?, credit_total = ?, version = version + 1, updated_at = ?
		WHERE account_code = ?`,
		current.DebitTotal.Add(debit).String(), current.CreditTotal.Add(credit).String(), formatTime(updatedAt), code)
	return err
}

// SetEncumbered sets the reserved amount of code.
func (r *BalanceRepository) SetEncumbered(ctx context.Context, tx usecase.Transaction, code string, encumbered decimal.Decimal, updatedAt time.Time) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	res, err := sqlTx.ExecContext(ctx, `UPDATE account_balances
		SET encumbered = ?, version = version + 1, updated_at = ?
		WHERE account_code = ?`, encumbered.String(), formatTime(updatedAt), code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.UnknownAccountError{Code: code}
	}
	return nil
}

// Get retrieves the balance row of code.
func (r *BalanceRepository) Get(ctx context.Context, code string) (*domain.AccountBalance, error) {
	return getBalance(ctx, r.db, code)
}

// List returns all balance rows ordered by code.
func (r *BalanceRepository) List(ctx context.Context) ([]*domain.AccountBalance, error) {
	return queryBalances(ctx, r.db, `SELECT `+balanceColumns+` FROM account_balances ORDER BY account_code`)
}

func getBalance(ctx context.Context, q querier, code string) (*domain.AccountBalance, error) {
	balances, err := queryBalances(ctx, q, `SELECT `+balanceColumns+` FROM account_balances WHERE account_code = ?`, code)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, &domain.UnknownAccountError{Code: code}
	}
	return balances[0], nil
}

func queryBalances(ctx context.Context, q querier, query string, args ...any) ([]*domain.AccountBalance, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.AccountBalance
	for rows.Next() {
		var (
			b                         domain.AccountBalance
			debit, credit, encumbered string
			updated                   string
		)
		if err := rows.Scan(&b.AccountCode, &debit, &credit, &encumbered, &b.Version, &updated); err != nil {
			return nil, err
		}
		if b.DebitTotal, err = parseDecimal(debit); err != nil {
			return nil, err
		}
		if b.CreditTotal, err = parseDecimal(credit); err != nil {
			return nil, err
		}
		if b.Encumbered, err = parseDecimal(encumbered); err != nil {
			return nil, err
		}
		if b.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		balances = append(balances, &b)
	}
	return balances, rows.Err()
}
