package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
)

// AccountRepository persists the chart of accounts and the balance rows
// backing each account.
type AccountRepository interface {
	// Sync upserts accounts and creates a zero balance row for any account
	// that has none. Existing balances are never touched.
	Sync(ctx context.Context, accounts []domain.Account) error
	List(ctx context.Context) ([]domain.Account, error)
}

// EntryRepository defines data access for ledger entries. Entries are only
// ever appended.
type EntryRepository interface {
	Append(ctx context.Context, tx Transaction, entries []*domain.LedgerEntry) error
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error)
	GetByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.LedgerEntry, error)
	GetByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error)
	SumByAccount(ctx context.Context, accountCode string) (debits, credits decimal.Decimal, err error)
}

// BalanceRepository defines data access for running account balances.
type BalanceRepository interface {
	// GetForUpdate locks the balance rows for codes in ascending code order.
	GetForUpdate(ctx context.Context, tx Transaction, codes []string) ([]*domain.AccountBalance, error)
	Apply(ctx context.Context, tx Transaction, code string, debit, credit decimal.Decimal, updatedAt time.Time) error
	SetEncumbered(ctx context.Context, tx Transaction, code string, encumbered decimal.Decimal, updatedAt time.Time) error
	Get(ctx context.Context, code string) (*domain.AccountBalance, error)
	List(ctx context.Context) ([]*domain.AccountBalance, error)
}

// ReservationRepository defines data access for restricted fund reservations.
type ReservationRepository interface {
	Create(ctx context.Context, tx Transaction, reservation *domain.FundReservation) error
	GetByDrawID(ctx context.Context, drawID string) (*domain.FundReservation, error)
	GetByDrawIDForUpdate(ctx context.Context, tx Transaction, drawID string) (*domain.FundReservation, error)
	Update(ctx context.Context, tx Transaction, reservation *domain.FundReservation) error
	ListActive(ctx context.Context, accountCode string) ([]*domain.FundReservation, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
