package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
)

var hundredPct = decimal.NewFromInt(100)

// Operations are the fixed entry recipes of the platform. Debits of the
// restricted account go through the guard, everything else through the
// builder.
type Operations struct {
	builder         *TransactionBuilder
	guard           *RestrictedFundGuard
	reservationRepo ReservationRepository
	incomePct       decimal.Decimal
	logger          zerolog.Logger
}

// NewOperations creates a new Operations. incomePct is the membership fee
// share booked as income; the rest goes to the prize pool.
func NewOperations(
	builder *TransactionBuilder,
	guard *RestrictedFundGuard,
	reservationRepo ReservationRepository,
	incomePct decimal.Decimal,
	logger zerolog.Logger,
) *Operations {
	return &Operations{
		builder:         builder,
		guard:           guard,
		reservationRepo: reservationRepo,
		incomePct:       incomePct,
		logger:          logger.With().Str("component", "operations").Logger(),
	}
}

// MembershipPayment splits a membership fee between income and the prize pool.
func (o *Operations) MembershipPayment(ctx context.Context, in MembershipPaymentInput) (string, error) {
	if err := domain.ValidateReference(in.PaymentID); err != nil {
		return "", err
	}
	if err := domain.ValidateCurrency(in.Currency); err != nil {
		return "", err
	}

	split, err := domain.SplitMembership(in.Amount, o.incomePct, hundredPct.Sub(o.incomePct))
	if err != nil {
		return "", err
	}

	return o.builder.Commit(ctx, CommitInput{
		Type:    domain.TransactionTypeMembershipPayment,
		ActorID: in.UserID,
		Entries: membershipPaymentRecipe(in, split),
	})
}

// PrizePayout credits a winner's wallet from the prize pool. The payout is
// realised against the draw's reservation when it has an active one, and
// otherwise checked against the unreserved balance.
func (o *Operations) PrizePayout(ctx context.Context, in PrizePayoutInput) (string, error) {
	if err := o.validatePrize(in.PrizeID, in.Amount); err != nil {
		return "", err
	}

	return o.debitPool(ctx, in.DrawID, CommitInput{
		Type:    domain.TransactionTypePrizePayout,
		ActorID: in.WinnerID,
		Entries: prizePayoutRecipe(in),
	})
}

// CommunitySupportReallocation moves an expired prize from the pool to
// community support.
func (o *Operations) CommunitySupportReallocation(ctx context.Context, in CommunitySupportInput) (string, error) {
	if err := o.validatePrize(in.PrizeID, in.Amount); err != nil {
		return "", err
	}

	return o.debitPool(ctx, in.DrawID, CommitInput{
		Type:    domain.TransactionTypeCommunitySupport,
		ActorID: in.NewRecipientID,
		Entries: communitySupportRecipe(in),
	})
}

// ReferralBonus accrues a referral bonus to a member wallet.
func (o *Operations) ReferralBonus(ctx context.Context, in BonusInput) (string, error) {
	return o.bonus(ctx, domain.TransactionTypeReferralBonus, domain.AccountReferralBonusExpense, domain.ReferenceTypeReferral, "Referral bonus", in)
}

// TierBonus accrues a tier bonus to a member wallet.
func (o *Operations) TierBonus(ctx context.Context, in BonusInput) (string, error) {
	return o.bonus(ctx, domain.TransactionTypeTierBonus, domain.AccountTierBonusExpense, domain.ReferenceTypeTierBonus, "Tier bonus", in)
}

// WalletWithdrawal pays a member wallet out to the bank in one step.
func (o *Operations) WalletWithdrawal(ctx context.Context, in WithdrawalInput) (string, error) {
	return o.withdrawal(ctx, domain.TransactionTypeWalletWithdrawal, domain.AccountMemberWallet, domain.AccountCash, "Wallet withdrawal", in)
}

// RequestWithdrawal parks a withdrawal in Pending-Withdrawals.
func (o *Operations) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (string, error) {
	return o.withdrawal(ctx, domain.TransactionTypeWithdrawalRequest, domain.AccountMemberWallet, domain.AccountPendingWithdrawals, "Withdrawal requested", in)
}

// CompleteWithdrawal pays a pending withdrawal out to the bank.
func (o *Operations) CompleteWithdrawal(ctx context.Context, in WithdrawalInput) (string, error) {
	return o.withdrawal(ctx, domain.TransactionTypeWithdrawalComplete, domain.AccountPendingWithdrawals, domain.AccountCash, "Withdrawal completed", in)
}

// RejectWithdrawal returns a pending withdrawal to the member wallet.
func (o *Operations) RejectWithdrawal(ctx context.Context, in WithdrawalInput) (string, error) {
	return o.withdrawal(ctx, domain.TransactionTypeWithdrawalReject, domain.AccountPendingWithdrawals, domain.AccountMemberWallet, "Withdrawal rejected", in)
}

func (o *Operations) bonus(ctx context.Context, txType domain.TransactionType, expense, refType, description string, in BonusInput) (string, error) {
	if err := domain.ValidateReference(in.ReferenceID); err != nil {
		return "", err
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return "", err
	}

	return o.builder.Commit(ctx, CommitInput{
		Type:    txType,
		ActorID: in.UserID,
		Entries: bonusRecipe(expense, refType, description, in),
	})
}

func (o *Operations) withdrawal(ctx context.Context, txType domain.TransactionType, from, to, description string, in WithdrawalInput) (string, error) {
	if err := domain.ValidateReference(in.WithdrawalID); err != nil {
		return "", err
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return "", err
	}

	return o.builder.Commit(ctx, CommitInput{
		Type:    txType,
		ActorID: in.UserID,
		Entries: transferRecipe(from, to, description, in),
	})
}

func (o *Operations) validatePrize(prizeID string, amount decimal.Decimal) error {
	if err := domain.ValidateReference(prizeID); err != nil {
		return err
	}
	return domain.ValidateAmount(amount)
}

// debitPool commits input through the guard.
func (o *Operations) debitPool(ctx context.Context, drawID string, input CommitInput) (string, error) {
	if drawID != "" {
		reservation, err := o.reservationRepo.GetByDrawID(ctx, drawID)
		switch {
		case err == nil && reservation.Status == domain.ReservationStatusActive:
			return o.guard.CommitAgainstReservation(ctx, drawID, input)
		case err == nil:
			// A settled draw must not be paid again out of the open pool.
			o.logger.Warn().Str("draw_id", drawID).Str("status", string(reservation.Status)).Msg("prize pool debit against inactive reservation")
			return "", domain.ErrReservationNotActive
		case err != nil && !errors.Is(err, domain.ErrReservationNotFound):
			return "", err
		}
	}

	_, txID, err := o.guard.ReserveAndCommit(ctx, input)
	if err != nil {
		o.logger.Warn().Err(err).Str("draw_id", drawID).Str("transaction_type", string(input.Type)).Msg("prize pool debit failed")
		return "", err
	}
	return txID, nil
}
