package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// EventResult is the outcome of an inbound event that posts a transaction.
type EventResult struct {
	TransactionID string
	Replayed      bool
}

// DrawRequest asks whether a draw with these prizes may be created.
type DrawRequest struct {
	DrawID  string
	ActorID string
	Prizes  []domain.Prize
}

// EventUseCase turns inbound platform events into ledger operations. An
// event whose business key was already posted returns the original
// transaction id and writes nothing.
type EventUseCase struct {
	ops       *Operations
	guard     *RestrictedFundGuard
	entryRepo EntryRepository
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewEventUseCase creates a new EventUseCase.
func NewEventUseCase(ops *Operations, guard *RestrictedFundGuard, entryRepo EntryRepository, logger zerolog.Logger, metrics *metrics.Metrics) *EventUseCase {
	return &EventUseCase{
		ops:       ops,
		guard:     guard,
		entryRepo: entryRepo,
		logger:    logger.With().Str("component", "events").Logger(),
		metrics:   metrics,
	}
}

// OnMembershipPaymentConfirmed posts a membership payment once per payment id.
func (uc *EventUseCase) OnMembershipPaymentConfirmed(ctx context.Context, in MembershipPaymentInput) (*EventResult, error) {
	return uc.process(ctx, "membership_payment", domain.ReferenceTypeMembershipPayment, in.PaymentID, domain.TransactionTypeMembershipPayment, func() (string, error) {
		return uc.ops.MembershipPayment(ctx, in)
	})
}

// OnPrizeClaimed pays a prize to its winner once per prize id.
func (uc *EventUseCase) OnPrizeClaimed(ctx context.Context, in PrizePayoutInput) (*EventResult, error) {
	return uc.process(ctx, "prize_claimed", domain.ReferenceTypePrize, in.PrizeID, domain.TransactionTypePrizePayout, func() (string, error) {
		return uc.ops.PrizePayout(ctx, in)
	})
}

// OnPrizeExpired reallocates an unclaimed prize once per prize id.
func (uc *EventUseCase) OnPrizeExpired(ctx context.Context, in CommunitySupportInput) (*EventResult, error) {
	return uc.process(ctx, "prize_expired", domain.ReferenceTypePrize, in.PrizeID, domain.TransactionTypeCommunitySupport, func() (string, error) {
		return uc.ops.CommunitySupportReallocation(ctx, in)
	})
}

// OnReferralBonusAccrued accrues a referral bonus once per referral id.
func (uc *EventUseCase) OnReferralBonusAccrued(ctx context.Context, in BonusInput) (*EventResult, error) {
	return uc.process(ctx, "referral_bonus", domain.ReferenceTypeReferral, in.ReferenceID, domain.TransactionTypeReferralBonus, func() (string, error) {
		return uc.ops.ReferralBonus(ctx, in)
	})
}

// OnTierBonusAccrued accrues a tier bonus once per bonus id.
func (uc *EventUseCase) OnTierBonusAccrued(ctx context.Context, in BonusInput) (*EventResult, error) {
	return uc.process(ctx, "tier_bonus", domain.ReferenceTypeTierBonus, in.ReferenceID, domain.TransactionTypeTierBonus, func() (string, error) {
		return uc.ops.TierBonus(ctx, in)
	})
}

// OnWithdrawalRequested moves the amount from the wallet to
// Pending-Withdrawals, or straight to the bank when immediate is set.
func (uc *EventUseCase) OnWithdrawalRequested(ctx context.Context, in WithdrawalInput, immediate bool) (*EventResult, error) {
	if immediate {
		return uc.process(ctx, "wallet_withdrawal", domain.ReferenceTypeWithdrawal, in.WithdrawalID, domain.TransactionTypeWalletWithdrawal, func() (string, error) {
			return uc.ops.WalletWithdrawal(ctx, in)
		})
	}
	return uc.process(ctx, "withdrawal_requested", domain.ReferenceTypeWithdrawal, in.WithdrawalID, domain.TransactionTypeWithdrawalRequest, func() (string, error) {
		return uc.ops.RequestWithdrawal(ctx, in)
	})
}

// OnWithdrawalCompleted pays out a pending withdrawal.
func (uc *EventUseCase) OnWithdrawalCompleted(ctx context.Context, withdrawalID string) (*EventResult, error) {
	return uc.process(ctx, "withdrawal_completed", domain.ReferenceTypeWithdrawal, withdrawalID, domain.TransactionTypeWithdrawalComplete, func() (string, error) {
		pending, err := uc.pendingWithdrawal(ctx, withdrawalID)
		if err != nil {
			return "", err
		}
		return uc.ops.CompleteWithdrawal(ctx, *pending)
	})
}

// OnWithdrawalRejected returns a pending withdrawal to the member wallet.
func (uc *EventUseCase) OnWithdrawalRejected(ctx context.Context, withdrawalID string) (*EventResult, error) {
	return uc.process(ctx, "withdrawal_rejected", domain.ReferenceTypeWithdrawal, withdrawalID, domain.TransactionTypeWithdrawalReject, func() (string, error) {
		pending, err := uc.pendingWithdrawal(ctx, withdrawalID)
		if err != nil {
			return "", err
		}
		return uc.ops.RejectWithdrawal(ctx, *pending)
	})
}

// OnDrawCreationRequested reserves the draw's prizes against the restricted
// fund. The scheduler must not create the draw when Allowed is false.
func (uc *EventUseCase) OnDrawCreationRequested(ctx context.Context, req DrawRequest) (*domain.ReservationDecision, error) {
	decision, err := uc.guard.Reserve(ctx, ReserveInput{DrawID: req.DrawID, ActorID: req.ActorID, Prizes: req.Prizes})
	if err != nil {
		uc.record("draw_requested", "error")
		return nil, err
	}

	status := "refused"
	switch {
	case decision.Replayed:
		status = "replayed"
	case decision.Allowed:
		status = "ok"
	}
	uc.record("draw_requested", status)

	return decision, nil
}

// OnDrawCancelled releases the draw's reservation.
func (uc *EventUseCase) OnDrawCancelled(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	reservation, err := uc.guard.ReleaseReservation(ctx, drawID)
	if err != nil {
		uc.record("draw_cancelled", "error")
		return nil, err
	}
	uc.record("draw_cancelled", "ok")
	return reservation, nil
}

func (uc *EventUseCase) process(
	ctx context.Context,
	event, refType, refID string,
	txType domain.TransactionType,
	op func() (string, error),
) (*EventResult, error) {
	if err := domain.ValidateReference(refID); err != nil {
		uc.record(event, "error")
		return nil, err
	}

	txID, err := uc.existing(ctx, refType, refID, txType)
	if err != nil {
		uc.record(event, "error")
		return nil, err
	}
	if txID != "" {
		return uc.replayed(event, refID, txID), nil
	}

	txID, err = op()
	if errors.Is(err, domain.ErrDuplicateTransaction) {
		// Lost a race with a concurrent delivery of the same event.
		if prior, lookupErr := uc.existing(ctx, refType, refID, txType); lookupErr == nil && prior != "" {
			return uc.replayed(event, refID, prior), nil
		}
	}
	if err != nil {
		uc.record(event, "error")
		uc.logger.Warn().Err(err).Str("event", event).Str("reference_id", refID).Msg("event not posted")
		return nil, err
	}

	uc.record(event, "ok")
	uc.logger.Info().Str("event", event).Str("reference_id", refID).Str("transaction_id", txID).Msg("event posted")

	return &EventResult{TransactionID: txID}, nil
}

func (uc *EventUseCase) replayed(event, refID, txID string) *EventResult {
	uc.record(event, "replayed")
	if uc.metrics != nil {
		uc.metrics.EventsReplayed.WithLabelValues(event).Inc()
	}
	uc.logger.Info().Str("event", event).Str("reference_id", refID).Str("transaction_id", txID).Msg("event already posted")
	return &EventResult{TransactionID: txID, Replayed: true}
}

// existing returns the id of the txType transaction already posted for the
// reference, or "" when there is none.
func (uc *EventUseCase) existing(ctx context.Context, refType, refID string, txType domain.TransactionType) (string, error) {
	entries, err := uc.entryRepo.GetByReference(ctx, refType, refID)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.TransactionType == txType {
			return e.TransactionID, nil
		}
	}
	return "", nil
}

// pendingWithdrawal rebuilds the request of a withdrawal that has been
// requested and not yet completed or rejected.
func (uc *EventUseCase) pendingWithdrawal(ctx context.Context, withdrawalID string) (*WithdrawalInput, error) {
	entries, err := uc.entryRepo.GetByReference(ctx, domain.ReferenceTypeWithdrawal, withdrawalID)
	if err != nil {
		return nil, err
	}

	var pending *WithdrawalInput
	for _, e := range entries {
		switch e.TransactionType {
		case domain.TransactionTypeWithdrawalComplete, domain.TransactionTypeWithdrawalReject:
			return nil, domain.ErrWithdrawalNotPending
		case domain.TransactionTypeWithdrawalRequest:
			if e.AccountCode == domain.AccountPendingWithdrawals {
				pending = &WithdrawalInput{WithdrawalID: withdrawalID, UserID: e.UserID, Amount: e.Credit}
			}
		}
	}

	if pending == nil || !pending.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrTransactionNotFound
	}
	return pending, nil
}

func (uc *EventUseCase) record(event, status string) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.EventsProcessed.WithLabelValues(event, status).Inc()
}
