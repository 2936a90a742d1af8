package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance holds running totals for an account. It is updated in the
// same transaction as every append and can be rebuilt from entries.
type AccountBalance struct {
	UpdatedAt   time.Time
	AccountCode string
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Encumbered  decimal.Decimal
	Version     int64
}

// Balance applies the sign convention for t.
func (b *AccountBalance) Balance(t AccountType) decimal.Decimal {
	return SignedBalance(t, b.DebitTotal, b.CreditTotal)
}

// Available is the balance minus encumbered reservations.
func (b *AccountBalance) Available(t AccountType) decimal.Decimal {
	return b.Balance(t).Sub(b.Encumbered)
}

// Apply adds debit and credit to the running totals.
func (b *AccountBalance) Apply(debit, credit decimal.Decimal, at time.Time) {
	b.DebitTotal = b.DebitTotal.Add(debit)
	b.CreditTotal = b.CreditTotal.Add(credit)
	b.Version++
	b.UpdatedAt = at
}
