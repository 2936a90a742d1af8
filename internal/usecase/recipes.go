package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
)

// MembershipPaymentInput is a confirmed membership fee.
type MembershipPaymentInput struct {
	PaymentID string
	UserID    string
	Currency  string
	Amount    decimal.Decimal
}

// PrizePayoutInput is a claimed prize.
type PrizePayoutInput struct {
	PrizeID  string
	DrawID   string
	WinnerID string
	Amount   decimal.Decimal
}

// CommunitySupportInput is an expired prize redirected to a new recipient.
type CommunitySupportInput struct {
	PrizeID          string
	DrawID           string
	OriginalWinnerID string
	NewRecipientID   string
	Amount           decimal.Decimal
}

// BonusInput is an accrued referral or tier bonus.
type BonusInput struct {
	ReferenceID string
	UserID      string
	Amount      decimal.Decimal
}

// WithdrawalInput moves money out of a member wallet.
type WithdrawalInput struct {
	WithdrawalID string
	UserID       string
	Amount       decimal.Decimal
}

func membershipPaymentRecipe(in MembershipPaymentInput, split *domain.MembershipSplit) []*domain.LedgerEntry {
	meta := map[string]any{
		"income_pct": split.IncomePct.String(),
		"pool_pct":   split.PoolPct.String(),
	}
	if in.Currency != "" {
		meta["currency"] = in.Currency
	}

	ref := func(e *domain.LedgerEntry) *domain.LedgerEntry {
		e.Metadata = copyMeta(meta)
		return e.WithReference(domain.ReferenceTypeMembershipPayment, in.PaymentID, in.UserID)
	}

	entries := []*domain.LedgerEntry{ref(domain.NewDebit(domain.AccountCash, in.Amount, "Membership payment received"))}
	// A 100/0 or 0/100 split writes one credit only.
	if split.Income.IsPositive() {
		entries = append(entries, ref(domain.NewCredit(domain.AccountMembershipIncome, split.Income, "Membership income share")))
	}
	if split.Pool.IsPositive() {
		entries = append(entries, ref(domain.NewCredit(domain.AccountPrizePool, split.Pool, "Prize pool contribution")))
	}
	return entries
}

func prizePayoutRecipe(in PrizePayoutInput) []*domain.LedgerEntry {
	meta := map[string]any{"draw_id": in.DrawID}
	return []*domain.LedgerEntry{
		withMeta(domain.NewDebit(domain.AccountPrizePool, in.Amount, "Prize payout").
			WithReference(domain.ReferenceTypePrize, in.PrizeID, in.WinnerID), meta),
		withMeta(domain.NewCredit(domain.AccountMemberWallet, in.Amount, "Prize credited to wallet").
			WithReference(domain.ReferenceTypePrize, in.PrizeID, in.WinnerID), meta),
	}
}

func communitySupportRecipe(in CommunitySupportInput) []*domain.LedgerEntry {
	meta := map[string]any{
		"draw_id":            in.DrawID,
		"original_winner_id": in.OriginalWinnerID,
		"new_recipient_id":   in.NewRecipientID,
	}
	return []*domain.LedgerEntry{
		withMeta(domain.NewDebit(domain.AccountPrizePool, in.Amount, "Expired prize reallocated").
			WithReference(domain.ReferenceTypePrize, in.PrizeID, in.NewRecipientID), meta),
		withMeta(domain.NewCredit(domain.AccountCommunitySupportExpense, in.Amount, "Community support").
			WithReference(domain.ReferenceTypePrize, in.PrizeID, in.NewRecipientID), meta),
	}
}

func bonusRecipe(expense, refType, description string, in BonusInput) []*domain.LedgerEntry {
	return []*domain.LedgerEntry{
		domain.NewDebit(expense, in.Amount, description).WithReference(refType, in.ReferenceID, in.UserID),
		domain.NewCredit(domain.AccountMemberWallet, in.Amount, description).WithReference(refType, in.ReferenceID, in.UserID),
	}
}

func transferRecipe(from, to, description string, in WithdrawalInput) []*domain.LedgerEntry {
	return []*domain.LedgerEntry{
		domain.NewDebit(from, in.Amount, description).WithReference(domain.ReferenceTypeWithdrawal, in.WithdrawalID, in.UserID),
		domain.NewCredit(to, in.Amount, description).WithReference(domain.ReferenceTypeWithdrawal, in.WithdrawalID, in.UserID),
	}
}

func withMeta(e *domain.LedgerEntry, meta map[string]any) *domain.LedgerEntry {
	e.Metadata = copyMeta(meta)
	return e
}

func copyMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
