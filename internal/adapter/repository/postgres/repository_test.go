package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundledger/internal/domain"
)

var entryColumns = []string{
	"id", "transaction_id", "transaction_type", "account_code", "debit", "credit", "description",
	"reference_type", "reference_id", "user_id", "metadata", "posting_date", "created_at",
}

var balanceColumns = []string{"account_code", "debit_total", "credit_total", "encumbered", "version", "updated_at"}

func numeric(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func stamp(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)
	return tx.(*Tx)
}

func payment() []*domain.LedgerEntry {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*domain.LedgerEntry{
		domain.NewDebit(domain.AccountCash, decimal.RequireFromString("100"), "membership"),
		domain.NewCredit(domain.AccountMembershipIncome, decimal.RequireFromString("70"), "membership"),
		domain.NewCredit(domain.AccountPrizePool, decimal.RequireFromString("30"), "membership"),
	}
	for i, e := range entries {
		e.ID = []string{"e1", "e2", "e3"}[i]
		e.TransactionID = "tx-1"
		e.TransactionType = domain.TransactionTypeMembershipPayment
		e.WithReference(domain.ReferenceTypeMembershipPayment, "pay-1", "user-1")
		e.PostingDate = now
		e.CreatedAt = now
	}
	return entries
}

// entryArgCount is the number of bind parameters of one ledger entry insert.
const entryArgCount = 13

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestEntryRepositoryAppend(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	for range 3 {
		pool.ExpectExec("INSERT INTO ledger_entries").WithArgs(anyArgs(entryArgCount)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	repo := NewEntryRepository(pool)
	require.NoError(t, repo.Append(context.Background(), beginTx(t, pool), payment()))
	assertExpectations(t, pool)
}

func TestEntryRepositoryAppendDuplicate(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO ledger_entries").WithArgs(anyArgs(entryArgCount)...).WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	repo := NewEntryRepository(pool)
	err := repo.Append(context.Background(), beginTx(t, pool), payment())
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
	assertExpectations(t, pool)
}

func TestEntryRepositoryAppendUnknownAccount(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO ledger_entries").WithArgs(anyArgs(entryArgCount)...).WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	repo := NewEntryRepository(pool)
	err := repo.Append(context.Background(), beginTx(t, pool), payment())
	assert.ErrorIs(t, err, domain.ErrUnknownAccount)
}

func TestEntryRepositoryRejectsForeignTransaction(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool)

	err := repo.Append(context.Background(), foreignTx{}, payment())
	assert.Error(t, err)
}

func TestEntryRepositoryGetByTransaction(t *testing.T) {
	pool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pool.ExpectQuery("FROM ledger_entries").
		WithArgs("tx-1").
		WillReturnRows(pgxmock.NewRows(entryColumns).
			AddRow("e1", "tx-1", "membership_payment", "1000", numeric("100"), numeric("0"), "membership",
				"membership_payment", "pay-1", "user-1", []byte(`{"currency":"USD"}`), stamp(now), stamp(now)).
			AddRow("e2", "tx-1", "membership_payment", "2100", numeric("0"), numeric("30"), "membership",
				"membership_payment", "pay-1", "user-1", []byte(nil), stamp(now), stamp(now)))

	repo := NewEntryRepository(pool)
	entries, err := repo.GetByTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.AccountCash, entries[0].AccountCode)
	assert.True(t, entries[0].Debit.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "USD", entries[0].Metadata["currency"])
	assert.True(t, entries[1].Credit.Equal(decimal.RequireFromString("30")))
	assert.Nil(t, entries[1].Metadata)
	assert.Equal(t, now, entries[1].PostingDate)
	assertExpectations(t, pool)
}

func TestEntryRepositorySumByAccount(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("SUM\\(debit\\)").
		WithArgs(domain.AccountPrizePool).
		WillReturnRows(pgxmock.NewRows([]string{"total_debits", "total_credits"}).
			AddRow(numeric("40"), numeric("100")))

	repo := NewEntryRepository(pool)
	debits, credits, err := repo.SumByAccount(context.Background(), domain.AccountPrizePool)
	require.NoError(t, err)
	assert.Equal(t, "40", debits.String())
	assert.Equal(t, "100", credits.String())
}

func TestBalanceRepositoryGetUnknown(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM account_balances").WithArgs("9999").WillReturnError(pgx.ErrNoRows)

	repo := NewBalanceRepository(pool)
	_, err := repo.Get(context.Background(), "9999")

	var unknown *domain.UnknownAccountError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "9999", unknown.Code)
}

func TestBalanceRepositoryGetForUpdate(t *testing.T) {
	pool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codes := []string{domain.AccountMemberWallet, domain.AccountPrizePool}

	pool.ExpectBegin()
	pool.ExpectQuery("FOR UPDATE").
		WithArgs(codes).
		WillReturnRows(pgxmock.NewRows(balanceColumns).
			AddRow(domain.AccountMemberWallet, numeric("0"), numeric("15"), numeric("0"), int64(2), stamp(now)).
			AddRow(domain.AccountPrizePool, numeric("10"), numeric("60"), numeric("20"), int64(5), stamp(now)))

	repo := NewBalanceRepository(pool)
	balances, err := repo.GetForUpdate(context.Background(), beginTx(t, pool), codes)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	pool2100 := balances[1]
	assert.Equal(t, domain.AccountPrizePool, pool2100.AccountCode)
	assert.Equal(t, "20", pool2100.Encumbered.String())
	assert.Equal(t, int64(5), pool2100.Version)
	assertExpectations(t, pool)
}

func TestBalanceRepositoryApply(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("UPDATE account_balances").
		WithArgs(domain.AccountCash, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewBalanceRepository(pool)
	err := repo.Apply(context.Background(), beginTx(t, pool), domain.AccountCash,
		decimal.RequireFromString("100"), decimal.Zero, time.Now())
	require.NoError(t, err)
	assertExpectations(t, pool)
}

func TestReservationRepositoryNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM fund_reservations").WithArgs("draw-1").WillReturnError(pgx.ErrNoRows)

	repo := NewReservationRepository(pool)
	_, err := repo.GetByDrawID(context.Background(), "draw-1")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestReservationRepositoryCreateDuplicateDraw(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO fund_reservations").
		WithArgs(append([]any{"r1", domain.AccountPrizePool, "draw-1", "active"}, anyArgs(5)...)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	res := &domain.FundReservation{
		ID:          "r1",
		AccountCode: domain.AccountPrizePool,
		DrawID:      "draw-1",
		Status:      domain.ReservationStatusActive,
		Prizes:      []domain.Prize{{Name: "first", Amount: decimal.RequireFromString("30")}},
		Amount:      decimal.RequireFromString("30"),
		Remaining:   decimal.RequireFromString("30"),
	}

	repo := NewReservationRepository(pool)
	err := repo.Create(context.Background(), beginTx(t, pool), res)
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
}

func TestReservationRepositoryGetByDrawID(t *testing.T) {
	pool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pool.ExpectQuery("FROM fund_reservations").
		WithArgs("draw-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "account_code", "draw_id", "status", "prizes", "amount", "remaining", "created_at", "updated_at",
		}).AddRow("r1", "2100", "draw-1", "active", []byte(`[{"name":"first","amount":"30"}]`),
			numeric("30"), numeric("12.5"), stamp(now), stamp(now)))

	repo := NewReservationRepository(pool)
	res, err := repo.GetByDrawID(context.Background(), "draw-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusActive, res.Status)
	require.Len(t, res.Prizes, 1)
	assert.Equal(t, "30", res.Prizes[0].Amount.String())
	assert.Equal(t, "12.5", res.Remaining.String())
}

func TestLedgerRepositoryCheckConsistency(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM ledger_entries").
		WillReturnRows(pgxmock.NewRows([]string{"total_debits", "total_credits"}).
			AddRow(numeric("250.75"), numeric("250.75")))

	repo := NewLedgerRepository(pool)
	debits, credits, err := repo.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, debits.Equal(credits))
}

func TestLedgerRepositoryCheckConsistencyError(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM ledger_entries").WillReturnError(errors.New("connection refused"))

	repo := NewLedgerRepository(pool)
	_, _, err := repo.CheckConsistency(context.Background())
	assert.Error(t, err)
}

func TestAccountRepositorySync(t *testing.T) {
	pool := newMockPool(t)
	accounts := domain.DefaultChartOfAccounts().Accounts()

	pool.ExpectBegin()
	for _, acc := range accounts {
		pool.ExpectExec("INSERT INTO accounts").
			WithArgs(append([]any{acc.Code}, anyArgs(5)...)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectExec("INSERT INTO account_balances").
			WithArgs(acc.Code, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	pool.ExpectCommit()

	repo := NewAccountRepository(pool, newTxManagerWithPool(pool))
	require.NoError(t, repo.Sync(context.Background(), accounts))
	assertExpectations(t, pool)
}

func TestAccountRepositorySyncRollsBackOnError(t *testing.T) {
	pool := newMockPool(t)
	accounts := domain.DefaultChartOfAccounts().Accounts()

	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO accounts").
		WithArgs(append([]any{accounts[0].Code}, anyArgs(5)...)...).
		WillReturnError(errors.New("boom"))
	pool.ExpectRollback()

	repo := NewAccountRepository(pool, newTxManagerWithPool(pool))
	err := repo.Sync(context.Background(), accounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), accounts[0].Code)
	assertExpectations(t, pool)
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("UPDATE outbox_events").WithArgs("evt-1", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewOutboxRepository(pool)
	require.NoError(t, repo.MarkPublished(context.Background(), "evt-1", time.Now()))
	assertExpectations(t, pool)
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }
