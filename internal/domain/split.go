package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DefaultIncomePercent is the platform share of a membership fee.
var DefaultIncomePercent = decimal.NewFromInt(70)

// MembershipSplit is a membership fee divided between income and the pool.
type MembershipSplit struct {
	Income    decimal.Decimal
	Pool      decimal.Decimal
	IncomePct decimal.Decimal
	PoolPct   decimal.Decimal
}

// SplitMembership divides amount by incomePct and poolPct, which must sum
// to exactly 100. The income share is rounded half-to-even to cents and the
// pool receives the remainder, so Income+Pool always equals amount.
func SplitMembership(amount, incomePct, poolPct decimal.Decimal) (*MembershipSplit, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if incomePct.IsNegative() || poolPct.IsNegative() || !incomePct.Add(poolPct).Equal(hundred) {
		return nil, ErrInvalidSplit
	}

	income := amount.Mul(incomePct).Div(hundred).RoundBank(AmountScale)
	return &MembershipSplit{
		Income:    income,
		Pool:      amount.Sub(income),
		IncomePct: incomePct,
		PoolPct:   poolPct,
	}, nil
}
