package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// Store is an in-memory ledger store with database-like transactions:
// writes are staged per transaction, GetForUpdate takes row locks held
// until commit or rollback, and business keys are unique.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	entries      []*domain.LedgerEntry
	balances     map[string]*domain.AccountBalance
	reservations map[string]*domain.FundReservation
	outbox       []*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// AppendErr, when set, fails every Append.
	AppendErr error
	// CommitErr, when set, fails every Commit.
	CommitErr error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		balances:     make(map[string]*domain.AccountBalance),
		reservations: make(map[string]*domain.FundReservation),
		locks:        make(map[string]*sync.Mutex),
	}
}

// NewSeededStore creates a Store with a zero balance row for every account
// in chart.
func NewSeededStore(chart *domain.ChartOfAccounts) *Store {
	s := NewStore()
	_ = s.Accounts().Sync(context.Background(), chart.Accounts())
	return s
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{
		store:        s,
		held:         make(map[string]*sync.Mutex),
		balances:     make(map[string]*domain.AccountBalance),
		reservations: make(map[string]*domain.FundReservation),
	}, nil
}

// AllEntries returns the committed entries.
func (s *Store) AllEntries() []*domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Events returns the committed outbox events.
func (s *Store) Events() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.OutboxEvent, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// SetBalance overwrites the running totals of code, bypassing the ledger.
func (s *Store) SetBalance(code string, debits, credits decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.balances[code]
	if !ok {
		row = &domain.AccountBalance{AccountCode: code, Encumbered: decimal.Zero}
		s.balances[code] = row
	}
	row.DebitTotal = debits
	row.CreditTotal = credits
}

func (s *Store) Accounts() *AccountRepository         { return &AccountRepository{s} }
func (s *Store) Entries() *EntryRepository            { return &EntryRepository{s} }
func (s *Store) Balances() *BalanceRepository         { return &BalanceRepository{s} }
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s} }
func (s *Store) Outbox() *OutboxRepository            { return &OutboxRepository{s} }
func (s *Store) Ledger() *LedgerRepository            { return &LedgerRepository{s} }

func (s *Store) rowLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// Tx is a Store transaction.
type Tx struct {
	store        *Store
	held         map[string]*sync.Mutex
	entries      []*domain.LedgerEntry
	balances     map[string]*domain.AccountBalance
	reservations map[string]*domain.FundReservation
	created      []string
	outbox       []*domain.OutboxEvent
	done         bool
}

func (t *Tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	m := t.store.rowLock(key)
	m.Lock()
	t.held[key] = m
}

func (t *Tx) release() {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = map[string]*sync.Mutex{}
	t.done = true
}

// Commit applies the staged writes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	defer t.release()

	s := t.store
	if s.CommitErr != nil {
		return s.CommitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkUnique(s.entries, t.entries); err != nil {
		return err
	}
	for _, drawID := range t.created {
		if _, ok := s.reservations[drawID]; ok {
			return domain.ErrDuplicateTransaction
		}
	}

	s.entries = append(s.entries, t.entries...)
	for code, row := range t.balances {
		s.balances[code] = row
	}
	for drawID, r := range t.reservations {
		s.reservations[drawID] = r
	}
	s.outbox = append(s.outbox, t.outbox...)
	return nil
}

// Rollback discards the staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func asTx(tx usecase.Transaction) *Tx {
	t, ok := tx.(*Tx)
	if !ok {
		panic(fmt.Sprintf("mocks: unexpected transaction type %T", tx))
	}
	return t
}

// checkUnique mirrors the unique indexes of the SQL schema.
func checkUnique(committed, staged []*domain.LedgerEntry) error {
	seen := make(map[string]struct{})
	for _, list := range [][]*domain.LedgerEntry{committed, staged} {
		for _, e := range list {
			for _, key := range uniqueKeys(e) {
				if _, ok := seen[key]; ok {
					return domain.ErrDuplicateTransaction
				}
				seen[key] = struct{}{}
			}
		}
	}
	return nil
}

func uniqueKeys(e *domain.LedgerEntry) []string {
	if e.ReferenceID == "" {
		return nil
	}
	keys := []string{fmt.Sprintf("ref|%s|%s|%s|%s", e.TransactionType, e.ReferenceType, e.ReferenceID, e.AccountCode)}
	if !e.Debit.IsPositive() {
		return keys
	}
	switch e.TransactionType {
	case domain.TransactionTypePrizePayout, domain.TransactionTypeCommunitySupport:
		keys = append(keys, "prize|"+e.ReferenceID)
	case domain.TransactionTypeWalletWithdrawal, domain.TransactionTypeWithdrawalRequest:
		keys = append(keys, "withdrawal-open|"+e.ReferenceID)
	case domain.TransactionTypeWithdrawalComplete, domain.TransactionTypeWithdrawalReject:
		keys = append(keys, "withdrawal-settle|"+e.ReferenceID)
	}
	return keys
}

// AccountRepository is the Store's usecase.AccountRepository.
type AccountRepository struct{ s *Store }

func (r *AccountRepository) Sync(ctx context.Context, accounts []domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, acc := range accounts {
		r.s.accounts[acc.Code] = acc
		if _, ok := r.s.balances[acc.Code]; !ok {
			r.s.balances[acc.Code] = &domain.AccountBalance{
				AccountCode: acc.Code,
				DebitTotal:  decimal.Zero,
				CreditTotal: decimal.Zero,
				Encumbered:  decimal.Zero,
			}
		}
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Account, 0, len(r.s.accounts))
	for _, acc := range r.s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// EntryRepository is the Store's usecase.EntryRepository.
type EntryRepository struct{ s *Store }

func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entries []*domain.LedgerEntry) error {
	if r.s.AppendErr != nil {
		return r.s.AppendErr
	}
	t := asTx(tx)

	r.s.mu.Lock()
	err := checkUnique(r.s.entries, append(append([]*domain.LedgerEntry{}, t.entries...), entries...))
	r.s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, e := range entries {
		c := *e
		t.entries = append(t.entries, &c)
	}
	return nil
}

func (r *EntryRepository) filter(match func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.LedgerEntry
	for _, e := range r.s.entries {
		if match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	return r.filter(func(e *domain.LedgerEntry) bool { return e.TransactionID == transactionID }), nil
}

func (r *EntryRepository) GetByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.LedgerEntry, error) {
	all := r.filter(func(e *domain.LedgerEntry) bool { return e.AccountCode == accountCode })
	// Newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return []*domain.LedgerEntry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *EntryRepository) GetByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	return r.filter(func(e *domain.LedgerEntry) bool {
		return e.ReferenceType == referenceType && e.ReferenceID == referenceID
	}), nil
}

func (r *EntryRepository) SumByAccount(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error) {
	debits, credits := domain.Totals(r.filter(func(e *domain.LedgerEntry) bool { return e.AccountCode == accountCode }))
	return debits, credits, nil
}

// BalanceRepository is the Store's usecase.BalanceRepository.
type BalanceRepository struct{ s *Store }

func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.AccountBalance, error) {
	t := asTx(tx)
	sorted := append([]string{}, codes...)
	sort.Strings(sorted)

	var out []*domain.AccountBalance
	for _, code := range sorted {
		r.s.mu.Lock()
		_, exists := r.s.balances[code]
		r.s.mu.Unlock()
		if !exists {
			continue
		}
		t.lock("balance:" + code)
		row, err := r.staged(t, code)
		if err != nil {
			return nil, err
		}
		c := *row
		out = append(out, &c)
	}
	return out, nil
}

// staged returns tx's working copy of the row for code.
func (r *BalanceRepository) staged(t *Tx, code string) (*domain.AccountBalance, error) {
	if row, ok := t.balances[code]; ok {
		return row, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.balances[code]
	if !ok {
		return nil, &domain.UnknownAccountError{Code: code}
	}
	c := *row
	t.balances[code] = &c
	return &c, nil
}

func (r *BalanceRepository) Apply(ctx context.Context, tx usecase.Transaction, code string, debit, credit decimal.Decimal, updatedAt time.Time) error {
	t := asTx(tx)
	t.lock("balance:" + code)
	row, err := r.staged(t, code)
	if err != nil {
		return err
	}
	row.Apply(debit, credit, updatedAt)
	return nil
}

func (r *BalanceRepository) SetEncumbered(ctx context.Context, tx usecase.Transaction, code string, encumbered decimal.Decimal, updatedAt time.Time) error {
	t := asTx(tx)
	t.lock("balance:" + code)
	row, err := r.staged(t, code)
	if err != nil {
		return err
	}
	row.Encumbered = encumbered
	row.UpdatedAt = updatedAt
	return nil
}

func (r *BalanceRepository) Get(ctx context.Context, code string) (*domain.AccountBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.balances[code]
	if !ok {
		return nil, &domain.UnknownAccountError{Code: code}
	}
	c := *row
	return &c, nil
}

func (r *BalanceRepository) List(ctx context.Context) ([]*domain.AccountBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.AccountBalance, 0, len(r.s.balances))
	for _, row := range r.s.balances {
		c := *row
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out, nil
}

// ReservationRepository is the Store's usecase.ReservationRepository.
type ReservationRepository struct{ s *Store }

func (r *ReservationRepository) Create(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	t := asTx(tx)
	if err := reservation.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	_, exists := r.s.reservations[reservation.DrawID]
	r.s.mu.Unlock()
	if _, staged := t.reservations[reservation.DrawID]; exists || staged {
		return domain.ErrDuplicateTransaction
	}
	c := copyReservation(reservation)
	t.reservations[reservation.DrawID] = c
	t.created = append(t.created, reservation.DrawID)
	return nil
}

func (r *ReservationRepository) GetByDrawID(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[drawID]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return copyReservation(res), nil
}

func (r *ReservationRepository) GetByDrawIDForUpdate(ctx context.Context, tx usecase.Transaction, drawID string) (*domain.FundReservation, error) {
	t := asTx(tx)
	if res, ok := t.reservations[drawID]; ok {
		return copyReservation(res), nil
	}
	t.lock("reservation:" + drawID)
	return r.GetByDrawID(ctx, drawID)
}

func (r *ReservationRepository) Update(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	t := asTx(tx)
	t.reservations[reservation.DrawID] = copyReservation(reservation)
	return nil
}

func (r *ReservationRepository) ListActive(ctx context.Context, accountCode string) ([]*domain.FundReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.FundReservation
	for _, res := range r.s.reservations {
		if res.AccountCode == accountCode && res.Status == domain.ReservationStatusActive {
			out = append(out, copyReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copyReservation(r *domain.FundReservation) *domain.FundReservation {
	c := *r
	c.Prizes = append([]domain.Prize(nil), r.Prizes...)
	return &c
}

// OutboxRepository is the Store's usecase.OutboxRepository.
type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t := asTx(tx)
	c := *event
	t.outbox = append(t.outbox, &c)
	return nil
}

func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if !e.Published && len(out) < limit {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			c := *e
			out = append(out, &c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.outbox[:0]
	for _, e := range r.s.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.outbox = kept
	return nil
}

// LedgerRepository is the Store's usecase.LedgerRepository.
type LedgerRepository struct{ s *Store }

func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	debits, credits := domain.Totals(r.s.entries)
	return debits, credits, nil
}

// SequenceIDGenerator returns ordered ids.
type SequenceIDGenerator struct {
	mu      sync.Mutex
	counter int
	prefix  string
}

func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s%06d", g.prefix, g.counter)
}

// MemoryCache is an in-memory usecase.Cache. TTLs are ignored.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// MemoryIdempotencyStore is an in-memory usecase.IdempotencyStore.
type MemoryIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MemoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MemoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var (
	_ usecase.TransactionManager    = (*Store)(nil)
	_ usecase.AccountRepository     = (*AccountRepository)(nil)
	_ usecase.EntryRepository       = (*EntryRepository)(nil)
	_ usecase.BalanceRepository     = (*BalanceRepository)(nil)
	_ usecase.ReservationRepository = (*ReservationRepository)(nil)
	_ usecase.OutboxRepository      = (*OutboxRepository)(nil)
	_ usecase.LedgerRepository      = (*LedgerRepository)(nil)
	_ usecase.IDGenerator           = (*SequenceIDGenerator)(nil)
	_ usecase.Cache                 = (*MemoryCache)(nil)
	_ usecase.IdempotencyStore      = (*MemoryIdempotencyStore)(nil)
)
