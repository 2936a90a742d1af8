package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// ReserveInput requests a reservation for a draw's prizes.
type ReserveInput struct {
	DrawID  string
	ActorID string
	Prizes  []domain.Prize
}

// RestrictedFundGuard serializes every read-then-write of the restricted
// account. Each decision holds an in-process lock for the account and a
// row lock on its balance row for the whole database transaction that
// acts on it.
type RestrictedFundGuard struct {
	builder         *TransactionBuilder
	reservationRepo ReservationRepository
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	locks           *accountLocks
}

// NewRestrictedFundGuard creates a new RestrictedFundGuard. It shares the
// builder's storage and id generation.
func NewRestrictedFundGuard(
	builder *TransactionBuilder,
	reservationRepo ReservationRepository,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *RestrictedFundGuard {
	return &RestrictedFundGuard{
		builder:         builder,
		reservationRepo: reservationRepo,
		logger:          logger.With().Str("component", "restricted_fund_guard").Logger(),
		metrics:         metrics,
		locks:           newAccountLocks(),
	}
}

func (g *RestrictedFundGuard) account() (domain.Account, error) {
	acc, ok := g.builder.chart.RestrictedAccount()
	if !ok {
		return domain.Account{}, domain.ErrNoRestrictedAccount
	}
	return acc, nil
}

// Check reports whether required could be reserved right now. It takes no
// locks and its answer is advisory only.
func (g *RestrictedFundGuard) Check(ctx context.Context, required decimal.Decimal) (*domain.ReservationDecision, error) {
	if err := domain.ValidateAmount(required); err != nil {
		return nil, err
	}

	acc, err := g.account()
	if err != nil {
		return nil, err
	}

	row, err := g.builder.balanceRepo.Get(ctx, acc.Code)
	if err != nil {
		return nil, err
	}

	return domain.Decide(row.Balance(acc.Type), row.Encumbered, required), nil
}

// Reserve atomically checks the restricted fund and encumbers the total
// of the draw's prizes. A refusal is returned as Allowed=false, not as an
// error. Reserving an already reserved draw returns the original decision.
func (g *RestrictedFundGuard) Reserve(ctx context.Context, input ReserveInput) (*domain.ReservationDecision, error) {
	if err := domain.ValidateReference(input.DrawID); err != nil {
		return nil, err
	}
	if len(input.Prizes) == 0 {
		return nil, domain.ErrInvalidAmount
	}
	for _, p := range input.Prizes {
		if err := domain.ValidateAmount(p.Amount); err != nil {
			return nil, err
		}
	}

	acc, err := g.account()
	if err != nil {
		return nil, err
	}

	required := domain.TotalPrizes(input.Prizes)

	unlock := g.lock(acc.Code)
	defer unlock()

	var (
		decision *domain.ReservationDecision
		alarm    error
	)

	err = g.builder.retrier.Retry(ctx, func() error {
		decision, alarm = nil, nil
		return runInTx(ctx, g.builder.txManager, func(txCtx context.Context, tx Transaction) error {
			row, err := g.lockRestricted(txCtx, tx, acc.Code)
			if err != nil {
				return err
			}

			balance := row.Balance(acc.Type)
			if balance.IsNegative() {
				alarm = g.raiseNegative(txCtx, tx, acc.Code, balance)
				return nil
			}

			existing, err := g.reservationRepo.GetByDrawIDForUpdate(txCtx, tx, input.DrawID)
			switch {
			case err == nil:
				if existing.Status == domain.ReservationStatusReleased {
					return domain.ErrReservationNotActive
				}
				decision = &domain.ReservationDecision{
					ReservationID:  existing.ID,
					CurrentBalance: balance,
					Available:      row.Available(acc.Type),
					Required:       existing.Amount,
					Shortfall:      decimal.Zero,
					Allowed:        true,
					Replayed:       true,
				}
				return nil
			case !errors.Is(err, domain.ErrReservationNotFound):
				return err
			}

			decision = domain.Decide(balance, row.Encumbered, required)
			if !decision.Allowed {
				return nil
			}

			now := g.builder.now().UTC()
			reservation := &domain.FundReservation{
				ID:          g.builder.idGen.Generate(),
				AccountCode: acc.Code,
				DrawID:      input.DrawID,
				Status:      domain.ReservationStatusActive,
				Prizes:      input.Prizes,
				Amount:      required,
				Remaining:   required,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := g.reservationRepo.Create(txCtx, tx, reservation); err != nil {
				return err
			}
			if err := g.builder.balanceRepo.SetEncumbered(txCtx, tx, acc.Code, row.Encumbered.Add(required), now); err != nil {
				return err
			}

			decision.ReservationID = reservation.ID
			return g.builder.outboxRepo.Create(txCtx, tx, g.reservationEvent(domain.EventTypeReservationCreated, reservation, now))
		})
	})
	if err != nil {
		return nil, storageError("reserve", err)
	}
	if alarm != nil {
		return nil, alarm
	}

	g.recordDecision(decision)
	if decision.Allowed && !decision.Replayed {
		g.builder.invalidateFundStatus(ctx, nil)
	}

	g.logger.Info().
		Str("draw_id", input.DrawID).
		Bool("allowed", decision.Allowed).
		Bool("replayed", decision.Replayed).
		Str("required", decision.Required.StringFixed(domain.AmountScale)).
		Str("available", decision.Available.StringFixed(domain.AmountScale)).
		Msg("draw reservation decided")

	return decision, nil
}

// ReserveAndCommit commits input only if the restricted fund has enough
// unreserved balance for the net amount input debits from it. The check
// and the write happen in one database transaction under the account lock.
func (g *RestrictedFundGuard) ReserveAndCommit(ctx context.Context, input CommitInput) (*domain.ReservationDecision, string, error) {
	acc, err := g.account()
	if err != nil {
		return nil, "", err
	}

	if err := g.builder.Validate(input); err != nil {
		g.builder.recordRejection(err)
		return nil, "", err
	}

	required := restrictedDebit(input.Entries, acc.Code)
	if !required.IsPositive() {
		txID, err := g.builder.Commit(ctx, input)
		return nil, txID, err
	}

	start := time.Now()
	txID, entries := g.builder.stamp(input)

	unlock := g.lock(acc.Code)
	defer unlock()

	var (
		decision *domain.ReservationDecision
		alarm    error
	)

	err = g.builder.retrier.Retry(ctx, func() error {
		decision, alarm = nil, nil
		return runInTx(ctx, g.builder.txManager, func(txCtx context.Context, tx Transaction) error {
			rows, err := g.lockAll(txCtx, tx, entries)
			if err != nil {
				return err
			}

			row := rows[acc.Code]
			balance := row.Balance(acc.Type)
			if balance.IsNegative() {
				alarm = g.raiseNegative(txCtx, tx, acc.Code, balance)
				return nil
			}

			decision = domain.Decide(balance, row.Encumbered, required)
			if !decision.Allowed {
				return &domain.InsufficientRestrictedFundsError{
					Required:  decision.Required,
					Available: decision.Available,
					Shortfall: decision.Shortfall,
				}
			}

			return g.builder.appendTx(txCtx, tx, entries, rows)
		})
	})
	if alarm != nil {
		return nil, "", alarm
	}
	if err != nil {
		err = storageError("reserve_and_commit", err)
		g.builder.recordRejection(err)
		if decision != nil && !decision.Allowed {
			g.recordDecision(decision)
			g.logger.Warn().
				Str("transaction_type", string(input.Type)).
				Str("required", required.StringFixed(domain.AmountScale)).
				Str("shortfall", decision.Shortfall.StringFixed(domain.AmountScale)).
				Msg("restricted fund debit refused")
		}
		return decision, "", err
	}

	g.recordDecision(decision)
	g.builder.recordCommit(entries, start)
	g.builder.invalidateFundStatus(ctx, nil)

	return decision, txID, nil
}

// CommitAgainstReservation commits input as a realisation of the active
// reservation for drawID. The net restricted debit must not exceed what is
// left of the reservation; the reservation and the encumbered balance are
// reduced in the same database transaction.
func (g *RestrictedFundGuard) CommitAgainstReservation(ctx context.Context, drawID string, input CommitInput) (string, error) {
	if err := domain.ValidateReference(drawID); err != nil {
		return "", err
	}

	acc, err := g.account()
	if err != nil {
		return "", err
	}

	if err := g.builder.Validate(input); err != nil {
		g.builder.recordRejection(err)
		return "", err
	}

	amount := restrictedDebit(input.Entries, acc.Code)
	if !amount.IsPositive() {
		return "", domain.ErrInvalidEntry
	}

	start := time.Now()
	txID, entries := g.builder.stamp(input)

	unlock := g.lock(acc.Code)
	defer unlock()

	var alarm error
	err = g.builder.retrier.Retry(ctx, func() error {
		alarm = nil
		return runInTx(ctx, g.builder.txManager, func(txCtx context.Context, tx Transaction) error {
			rows, err := g.lockAll(txCtx, tx, entries)
			if err != nil {
				return err
			}

			row := rows[acc.Code]
			balance := row.Balance(acc.Type)
			if balance.IsNegative() {
				alarm = g.raiseNegative(txCtx, tx, acc.Code, balance)
				return nil
			}
			if balance.LessThan(amount) {
				return &domain.InsufficientRestrictedFundsError{
					Required:  amount,
					Available: balance,
					Shortfall: amount.Sub(balance),
				}
			}

			reservation, err := g.reservationRepo.GetByDrawIDForUpdate(txCtx, tx, drawID)
			if err != nil {
				return err
			}

			now := g.builder.now().UTC()
			if err := reservation.Consume(amount, now); err != nil {
				return err
			}
			if err := g.reservationRepo.Update(txCtx, tx, reservation); err != nil {
				return err
			}

			encumbered := row.Encumbered.Sub(amount)
			if encumbered.IsNegative() {
				encumbered = decimal.Zero
			}
			if err := g.builder.balanceRepo.SetEncumbered(txCtx, tx, acc.Code, encumbered, now); err != nil {
				return err
			}

			if err := g.builder.appendTx(txCtx, tx, entries, rows); err != nil {
				return err
			}

			return g.builder.outboxRepo.Create(txCtx, tx, g.reservationEvent(domain.EventTypeReservationConsumed, reservation, now))
		})
	})
	if alarm != nil {
		return "", alarm
	}
	if err != nil {
		err = storageError("commit_against_reservation", err)
		g.builder.recordRejection(err)
		return "", err
	}

	g.builder.recordCommit(entries, start)
	g.builder.invalidateFundStatus(ctx, nil)

	g.logger.Info().
		Str("draw_id", drawID).
		Str("transaction_id", txID).
		Str("amount", amount.StringFixed(domain.AmountScale)).
		Msg("reservation realised")

	return txID, nil
}

// ReleaseReservation cancels the active reservation for drawID and returns
// what is left of it to the available balance.
func (g *RestrictedFundGuard) ReleaseReservation(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	if err := domain.ValidateReference(drawID); err != nil {
		return nil, err
	}

	acc, err := g.account()
	if err != nil {
		return nil, err
	}

	unlock := g.lock(acc.Code)
	defer unlock()

	var released *domain.FundReservation
	err = g.builder.retrier.Retry(ctx, func() error {
		return runInTx(ctx, g.builder.txManager, func(txCtx context.Context, tx Transaction) error {
			row, err := g.lockRestricted(txCtx, tx, acc.Code)
			if err != nil {
				return err
			}

			reservation, err := g.reservationRepo.GetByDrawIDForUpdate(txCtx, tx, drawID)
			if err != nil {
				return err
			}
			if reservation.Status != domain.ReservationStatusActive {
				return domain.ErrReservationNotActive
			}

			now := g.builder.now().UTC()
			freed := reservation.Remaining
			reservation.Status = domain.ReservationStatusReleased
			reservation.UpdatedAt = now
			if err := g.reservationRepo.Update(txCtx, tx, reservation); err != nil {
				return err
			}

			encumbered := row.Encumbered.Sub(freed)
			if encumbered.IsNegative() {
				encumbered = decimal.Zero
			}
			if err := g.builder.balanceRepo.SetEncumbered(txCtx, tx, acc.Code, encumbered, now); err != nil {
				return err
			}

			released = reservation
			return g.builder.outboxRepo.Create(txCtx, tx, g.reservationEvent(domain.EventTypeReservationReleased, reservation, now))
		})
	})
	if err != nil {
		return nil, storageError("release_reservation", err)
	}

	if g.metrics != nil {
		g.metrics.ReservationsReleased.Inc()
	}
	g.builder.invalidateFundStatus(ctx, nil)

	g.logger.Info().Str("draw_id", drawID).Str("released", released.Remaining.StringFixed(domain.AmountScale)).Msg("reservation released")

	return released, nil
}

// Reservation returns the reservation for drawID.
func (g *RestrictedFundGuard) Reservation(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	return g.reservationRepo.GetByDrawID(ctx, drawID)
}

// ActiveReservations lists reservations that still encumber the fund.
func (g *RestrictedFundGuard) ActiveReservations(ctx context.Context) ([]*domain.FundReservation, error) {
	acc, err := g.account()
	if err != nil {
		return nil, err
	}
	return g.reservationRepo.ListActive(ctx, acc.Code)
}

// Status summarises the restricted fund from committed entries. The
// displayed balance is clamped at zero; RawBalance is not.
func (g *RestrictedFundGuard) Status(ctx context.Context) (*domain.RestrictedFundStatus, error) {
	acc, err := g.account()
	if err != nil {
		return nil, err
	}

	if cached := g.cachedStatus(ctx); cached != nil {
		return cached, nil
	}

	row, err := g.builder.balanceRepo.Get(ctx, acc.Code)
	if err != nil {
		return nil, err
	}

	debits, credits, err := g.builder.entryRepo.SumByAccount(ctx, acc.Code)
	if err != nil {
		return nil, err
	}

	raw := acc.SignedBalance(debits, credits)
	status := &domain.RestrictedFundStatus{
		AccountCode:        acc.Code,
		RawBalance:         raw,
		Balance:            raw,
		TotalContributions: credits,
		TotalDisbursements: debits,
		Reserved:           row.Encumbered,
	}

	if raw.IsNegative() {
		status.Balance = decimal.Zero
		status.NegativeBalanceDetected = true
		g.logger.Error().Str("account_code", acc.Code).Str("balance", raw.StringFixed(domain.AmountScale)).Msg("restricted fund balance is negative")
		if g.metrics != nil {
			g.metrics.RestrictedNegativeBalance.Inc()
		}
	}

	status.Available = status.Balance.Sub(status.Reserved)
	if status.Available.IsNegative() {
		status.Available = decimal.Zero
	}

	if g.metrics != nil {
		g.metrics.RestrictedBalance.Set(raw.InexactFloat64())
	}

	// A commit that lands between the reads may already have dropped the
	// cached value; caching this snapshot would bring the stale one back.
	after, err := g.builder.balanceRepo.Get(ctx, acc.Code)
	if err == nil && after.Version == row.Version && after.Encumbered.Equal(row.Encumbered) {
		g.storeStatus(ctx, status)
	}

	return status, nil
}

func (g *RestrictedFundGuard) cachedStatus(ctx context.Context) *domain.RestrictedFundStatus {
	if g.builder.cache == nil {
		return nil
	}
	data, err := g.builder.cache.Get(ctx, FundStatusCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var status domain.RestrictedFundStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil
	}
	return &status
}

func (g *RestrictedFundGuard) storeStatus(ctx context.Context, status *domain.RestrictedFundStatus) {
	if g.builder.cache == nil || g.builder.cacheTTL <= 0 || status.NegativeBalanceDetected {
		return
	}
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := g.builder.cache.Set(ctx, FundStatusCacheKey, data, g.builder.cacheTTL); err != nil {
		g.logger.Warn().Err(err).Msg("failed to cache fund status")
	}
}

func (g *RestrictedFundGuard) lock(code string) func() {
	start := time.Now()
	unlock := g.locks.lock(code)
	if g.metrics != nil {
		g.metrics.GuardWaitDuration.Observe(time.Since(start).Seconds())
	}
	return unlock
}

func (g *RestrictedFundGuard) lockRestricted(ctx context.Context, tx Transaction, code string) (*domain.AccountBalance, error) {
	rows, err := g.builder.balanceRepo.GetForUpdate(ctx, tx, []string{code})
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, &domain.UnknownAccountError{Code: code}
	}
	return rows[0], nil
}

// lockAll locks the balance rows of every account in entries in code order.
func (g *RestrictedFundGuard) lockAll(ctx context.Context, tx Transaction, entries []*domain.LedgerEntry) (map[string]*domain.AccountBalance, error) {
	codes := accountCodes(entries)
	rows, err := g.builder.balanceRepo.GetForUpdate(ctx, tx, codes)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(codes) {
		return nil, &domain.UnknownAccountError{Code: firstMissing(codes, rows)}
	}
	return balanceMap(rows), nil
}

// raiseNegative records an operator alarm in tx and returns the error the
// caller reports once tx is committed.
func (g *RestrictedFundGuard) raiseNegative(ctx context.Context, tx Transaction, code string, balance decimal.Decimal) error {
	g.logger.Error().
		Str("account_code", code).
		Str("balance", balance.StringFixed(domain.AmountScale)).
		Msg("restricted fund balance is negative, refusing debit")
	if g.metrics != nil {
		g.metrics.RestrictedNegativeBalance.Inc()
	}

	now := g.builder.now().UTC()
	event := &domain.OutboxEvent{
		ID:            g.builder.idGen.Generate(),
		AggregateID:   code,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeNegativeBalanceDetected,
		Payload: map[string]any{
			"account_code": code,
			"balance":      balance.StringFixed(domain.AmountScale),
		},
		CreatedAt: now,
	}
	if err := g.builder.outboxRepo.Create(ctx, tx, event); err != nil {
		g.logger.Error().Err(err).Msg("failed to record negative balance alarm")
	}

	return &domain.NegativeRestrictedBalanceError{AccountCode: code, Balance: balance}
}

func (g *RestrictedFundGuard) reservationEvent(eventType string, r *domain.FundReservation, at time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            g.builder.idGen.Generate(),
		AggregateID:   r.ID,
		AggregateType: domain.AggregateTypeReservation,
		EventType:     eventType,
		Payload: map[string]any{
			"reservation_id": r.ID,
			"draw_id":        r.DrawID,
			"amount":         r.Amount.StringFixed(domain.AmountScale),
			"remaining":      r.Remaining.StringFixed(domain.AmountScale),
			"status":         string(r.Status),
		},
		CreatedAt: at,
	}
}

func (g *RestrictedFundGuard) recordDecision(d *domain.ReservationDecision) {
	if g.metrics == nil || d == nil {
		return
	}
	outcome := "refused"
	switch {
	case d.Replayed:
		outcome = "replayed"
	case d.Allowed:
		outcome = "allowed"
	}
	g.metrics.ReservationDecisions.WithLabelValues(outcome).Inc()
}

// accountLocks hands out one mutex per account code.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) lock(code string) func() {
	l.mu.Lock()
	m, ok := l.locks[code]
	if !ok {
		m = &sync.Mutex{}
		l.locks[code] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
