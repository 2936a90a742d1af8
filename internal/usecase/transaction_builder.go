package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// CommitInput is a set of unstamped entries forming one transaction.
type CommitInput struct {
	PostingDate *time.Time
	Type        domain.TransactionType
	ActorID     string
	Entries     []*domain.LedgerEntry
}

// TransactionBuilder enforces the double-entry invariant and appends
// balanced transactions as one atomic batch.
type TransactionBuilder struct {
	chart       *domain.ChartOfAccounts
	txManager   TransactionManager
	entryRepo   EntryRepository
	balanceRepo BalanceRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	cache       Cache
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewTransactionBuilder creates a new TransactionBuilder.
func NewTransactionBuilder(
	chart *domain.ChartOfAccounts,
	txManager TransactionManager,
	entryRepo EntryRepository,
	balanceRepo BalanceRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *TransactionBuilder {
	if retrier == nil {
		retrier = noRetry{}
	}
	return &TransactionBuilder{
		chart:       chart,
		txManager:   txManager,
		entryRepo:   entryRepo,
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		logger:      logger.With().Str("component", "transaction_builder").Logger(),
		metrics:     metrics,
		now:         time.Now,
	}
}

// WithStatusCache enables caching of the restricted fund status. Commits
// touching the restricted account drop the cached value.
func (b *TransactionBuilder) WithStatusCache(cache Cache, ttl time.Duration) *TransactionBuilder {
	b.cache = cache
	b.cacheTTL = ttl
	return b
}

// Validate checks input without touching storage.
func (b *TransactionBuilder) Validate(input CommitInput) error {
	if len(input.Entries) < 2 {
		return domain.ErrTooFewEntries
	}

	for _, e := range input.Entries {
		if e == nil {
			return domain.ErrInvalidEntry
		}
		if _, err := b.chart.Get(e.AccountCode); err != nil {
			b.logger.Error().Err(err).Str("account_code", e.AccountCode).Msg("entry references account outside chart")
			return err
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if err := domain.ValidateMetadata(e.Metadata); err != nil {
			return err
		}
	}

	if err := domain.CheckBalanced(input.Entries); err != nil {
		b.logger.Error().
			Err(err).
			Str("transaction_type", string(input.Type)).
			Int("entries", len(input.Entries)).
			Msg("rejected unbalanced transaction")
		return err
	}

	return nil
}

// Commit validates, stamps, and persists input. It returns the new
// transaction id. Nothing is persisted when an error is returned.
func (b *TransactionBuilder) Commit(ctx context.Context, input CommitInput) (string, error) {
	start := time.Now()

	if err := b.Validate(input); err != nil {
		b.recordRejection(err)
		return "", err
	}

	txID, entries := b.stamp(input)

	err := b.retrier.Retry(ctx, func() error {
		return runInTx(ctx, b.txManager, func(txCtx context.Context, tx Transaction) error {
			return b.appendTx(txCtx, tx, entries, nil)
		})
	})
	if err != nil {
		err = storageError("commit", err)
		b.recordRejection(err)
		b.logger.Warn().Err(err).Str("transaction_id", txID).Str("transaction_type", string(input.Type)).Msg("transaction not committed")
		return "", err
	}

	b.recordCommit(entries, start)
	b.invalidateFundStatus(ctx, entries)
	b.logger.Debug().Str("transaction_id", txID).Str("transaction_type", string(input.Type)).Msg("transaction committed")

	return txID, nil
}

// stamp copies entries and assigns ids, type, and dates. The caller's
// entries are not modified.
func (b *TransactionBuilder) stamp(input CommitInput) (string, []*domain.LedgerEntry) {
	txID := b.idGen.Generate()
	now := b.now().UTC()

	posting := now
	if input.PostingDate != nil {
		posting = input.PostingDate.UTC()
	}

	txType := input.Type
	if txType == "" {
		txType = domain.TransactionTypeAdjustment
	}

	actor := input.ActorID
	if actor == "" {
		actor = systemActor
	}

	stamped := make([]*domain.LedgerEntry, len(input.Entries))
	for i, e := range input.Entries {
		c := *e
		c.ID = b.idGen.Generate()
		c.TransactionID = txID
		c.TransactionType = txType
		c.PostingDate = posting
		c.CreatedAt = now

		meta := make(map[string]any, len(e.Metadata)+1)
		for k, v := range e.Metadata {
			meta[k] = v
		}
		meta["actor_id"] = actor
		c.Metadata = meta

		stamped[i] = &c
	}

	return txID, stamped
}

// appendTx writes stamped entries inside tx. Balance rows already locked
// by the caller are passed in locked; the rest are locked here in code
// order before anything is written.
func (b *TransactionBuilder) appendTx(ctx context.Context, tx Transaction, entries []*domain.LedgerEntry, locked map[string]*domain.AccountBalance) error {
	codes := accountCodes(entries)

	var missing []string
	for _, code := range codes {
		if _, ok := locked[code]; !ok {
			missing = append(missing, code)
		}
	}

	if len(missing) > 0 {
		rows, err := b.balanceRepo.GetForUpdate(ctx, tx, missing)
		if err != nil {
			return err
		}
		if len(rows) != len(missing) {
			return &domain.UnknownAccountError{Code: firstMissing(missing, rows)}
		}
	}

	if err := b.entryRepo.Append(ctx, tx, entries); err != nil {
		return err
	}

	at := entries[0].CreatedAt
	for _, code := range codes {
		debit, credit := domain.NetFor(entries, code)
		if err := b.balanceRepo.Apply(ctx, tx, code, debit, credit, at); err != nil {
			return err
		}
	}

	return b.outboxRepo.Create(ctx, tx, b.committedEvent(entries, codes))
}

func (b *TransactionBuilder) committedEvent(entries []*domain.LedgerEntry, codes []string) *domain.OutboxEvent {
	first := entries[0]
	debits, _ := domain.Totals(entries)

	return &domain.OutboxEvent{
		ID:            b.idGen.Generate(),
		AggregateID:   first.TransactionID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCommitted,
		Payload: map[string]any{
			"transaction_id":   first.TransactionID,
			"transaction_type": string(first.TransactionType),
			"accounts":         codes,
			"amount":           debits.StringFixed(domain.AmountScale),
			"reference_type":   first.ReferenceType,
			"reference_id":     first.ReferenceID,
			"posting_date":     first.PostingDate.Format(time.RFC3339),
		},
		CreatedAt: first.CreatedAt,
		Published: false,
	}
}

func (b *TransactionBuilder) recordCommit(entries []*domain.LedgerEntry, start time.Time) {
	if b.metrics == nil {
		return
	}
	debits, _ := domain.Totals(entries)
	b.metrics.TransactionsCommitted.WithLabelValues(string(entries[0].TransactionType)).Inc()
	b.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	b.metrics.TransactionAmount.Observe(debits.InexactFloat64())
}

func (b *TransactionBuilder) invalidateFundStatus(ctx context.Context, entries []*domain.LedgerEntry) {
	if b.cache == nil {
		return
	}
	if entries != nil {
		touched := false
		for _, e := range entries {
			if b.chart.IsRestricted(e.AccountCode) {
				touched = true
				break
			}
		}
		if !touched {
			return
		}
	}
	if err := b.cache.Delete(ctx, FundStatusCacheKey); err != nil {
		b.logger.Warn().Err(err).Msg("failed to drop cached fund status")
	}
}

func (b *TransactionBuilder) recordRejection(err error) {
	if b.metrics == nil {
		return
	}
	b.metrics.TransactionsRejected.WithLabelValues(rejectionReason(err)).Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnbalancedTransaction):
		return "unbalanced"
	case errors.Is(err, domain.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, domain.ErrInsufficientRestrictedFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNegativeRestrictedBalance):
		return "negative_balance"
	case errors.Is(err, domain.ErrStorageWrite):
		return "storage"
	default:
		return "invalid"
	}
}

// runInTx runs fn inside a bounded transaction and commits on success.
func runInTx(ctx context.Context, tm TransactionManager, fn func(ctx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := tm.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// storageError wraps failures that are not already classified by the domain.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domain.ErrStorageWrite,
		domain.ErrDuplicateTransaction,
		domain.ErrUnknownAccount,
		domain.ErrInsufficientRestrictedFunds,
		domain.ErrNegativeRestrictedBalance,
		domain.ErrReservationNotFound,
		domain.ErrReservationNotActive,
		domain.ErrReservationExceeded,
		domain.ErrNoRestrictedAccount,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &domain.StorageWriteError{Op: op, Err: err}
}

func accountCodes(entries []*domain.LedgerEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountCode]; ok {
			continue
		}
		seen[e.AccountCode] = struct{}{}
		codes = append(codes, e.AccountCode)
	}
	sort.Strings(codes)
	return codes
}

func firstMissing(codes []string, rows []*domain.AccountBalance) string {
	have := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		have[r.AccountCode] = struct{}{}
	}
	for _, c := range codes {
		if _, ok := have[c]; !ok {
			return c
		}
	}
	return ""
}

func balanceMap(rows []*domain.AccountBalance) map[string]*domain.AccountBalance {
	m := make(map[string]*domain.AccountBalance, len(rows))
	for _, r := range rows {
		m[r.AccountCode] = r
	}
	return m
}

// restrictedDebit returns the amount entries take out of the restricted
// account net of any credits to it.
func restrictedDebit(entries []*domain.LedgerEntry, code string) decimal.Decimal {
	debits, credits := domain.NetFor(entries, code)
	return debits.Sub(credits)
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
