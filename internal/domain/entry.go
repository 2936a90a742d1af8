package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType names the business event a transaction records.
type TransactionType string

const (
	TransactionTypeMembershipPayment  TransactionType = "membership_payment"
	TransactionTypePrizePayout        TransactionType = "prize_payout"
	TransactionTypeCommunitySupport   TransactionType = "community_support_reallocation"
	TransactionTypeReferralBonus      TransactionType = "referral_bonus"
	TransactionTypeTierBonus          TransactionType = "tier_bonus"
	TransactionTypeWalletWithdrawal   TransactionType = "wallet_withdrawal"
	TransactionTypeWithdrawalRequest  TransactionType = "withdrawal_request"
	TransactionTypeWithdrawalComplete TransactionType = "withdrawal_complete"
	TransactionTypeWithdrawalReject   TransactionType = "withdrawal_reject"
	TransactionTypeAdjustment         TransactionType = "adjustment"
)

// Reference types identify the external record an entry belongs to.
const (
	ReferenceTypeMembershipPayment = "membership_payment"
	ReferenceTypePrize             = "prize"
	ReferenceTypeReferral          = "referral"
	ReferenceTypeTierBonus         = "tier_bonus"
	ReferenceTypeWithdrawal        = "withdrawal"
)

// LedgerEntry is one side of a transaction against a single account.
// Entries are immutable once committed.
type LedgerEntry struct {
	PostingDate     time.Time
	CreatedAt       time.Time
	Metadata        map[string]any
	ID              string
	TransactionID   string
	TransactionType TransactionType
	AccountCode     string
	Description     string
	ReferenceType   string
	ReferenceID     string
	UserID          string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
}

// NewDebit builds an unstamped debit entry.
func NewDebit(account string, amount decimal.Decimal, description string) *LedgerEntry {
	return &LedgerEntry{AccountCode: account, Debit: amount, Credit: decimal.Zero, Description: description}
}

// NewCredit builds an unstamped credit entry.
func NewCredit(account string, amount decimal.Decimal, description string) *LedgerEntry {
	return &LedgerEntry{AccountCode: account, Debit: decimal.Zero, Credit: amount, Description: description}
}

// WithReference sets reference fields and returns the entry.
func (e *LedgerEntry) WithReference(refType, refID, userID string) *LedgerEntry {
	e.ReferenceType = refType
	e.ReferenceID = refID
	e.UserID = userID
	return e
}

// Validate checks the single-entry invariants: both sides non-negative,
// exactly one side non-zero, and at most two fractional digits.
func (e *LedgerEntry) Validate() error {
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return ErrInvalidAmount
	}
	if e.Debit.IsZero() == e.Credit.IsZero() {
		return ErrInvalidEntry
	}
	if !HasCentPrecision(e.Debit) || !HasCentPrecision(e.Credit) {
		return ErrInvalidPrecision
	}
	return nil
}

// Amount returns the non-zero side.
func (e *LedgerEntry) Amount() decimal.Decimal {
	if e.Debit.IsZero() {
		return e.Credit
	}
	return e.Debit
}

// IsDebit reports whether the entry debits its account.
func (e *LedgerEntry) IsDebit() bool {
	return e.Debit.IsPositive()
}

// Totals sums both sides of entries.
func Totals(entries []*LedgerEntry) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	return debits, credits
}

// CheckBalanced returns an UnbalancedTransactionError unless debits equal
// credits exactly.
func CheckBalanced(entries []*LedgerEntry) error {
	debits, credits := Totals(entries)
	if !debits.Equal(credits) {
		return &UnbalancedTransactionError{Debits: debits, Credits: credits}
	}
	return nil
}

// NetFor returns total debits and credits against one account.
func NetFor(entries []*LedgerEntry, account string) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.AccountCode != account {
			continue
		}
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	return debits, credits
}
