package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusConsumed ReservationStatus = "consumed"
	ReservationStatusReleased ReservationStatus = "released"
)

// Prize is one prize of a draw.
type Prize struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TotalPrizes sums prize amounts.
func TotalPrizes(prizes []Prize) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prizes {
		total = total.Add(p.Amount)
	}
	return total
}

// FundReservation encumbers part of the restricted fund for a draw until
// its prizes are paid out or the draw is cancelled. It writes no entries.
type FundReservation struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	AccountCode string
	DrawID      string
	Status      ReservationStatus
	Prizes      []Prize
	Amount      decimal.Decimal
	Remaining   decimal.Decimal
}

// Validate checks if the reservation is well formed.
func (r *FundReservation) Validate() error {
	if r.DrawID == "" {
		return ErrMissingReference
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// Consume reduces the remaining amount, marking the reservation consumed
// once nothing is left.
func (r *FundReservation) Consume(amount decimal.Decimal, at time.Time) error {
	if r.Status != ReservationStatusActive {
		return ErrReservationNotActive
	}
	if amount.GreaterThan(r.Remaining) {
		return ErrReservationExceeded
	}
	r.Remaining = r.Remaining.Sub(amount)
	if r.Remaining.IsZero() {
		r.Status = ReservationStatusConsumed
	}
	r.UpdatedAt = at
	return nil
}

// ReservationDecision is the outcome of a restricted fund check.
type ReservationDecision struct {
	ReservationID  string
	CurrentBalance decimal.Decimal
	Available      decimal.Decimal
	Required       decimal.Decimal
	Shortfall      decimal.Decimal
	Allowed        bool
	Replayed       bool
}

// Decide compares required against available.
func Decide(balance, encumbered, required decimal.Decimal) *ReservationDecision {
	available := balance.Sub(encumbered)
	d := &ReservationDecision{
		CurrentBalance: balance,
		Available:      available,
		Required:       required,
		Shortfall:      decimal.Zero,
		Allowed:        available.GreaterThanOrEqual(required),
	}
	if !d.Allowed {
		d.Shortfall = required.Sub(available)
	}
	return d
}

// RestrictedFundStatus summarises the restricted account.
type RestrictedFundStatus struct {
	AccountCode             string
	Balance                 decimal.Decimal
	RawBalance              decimal.Decimal
	TotalContributions      decimal.Decimal
	TotalDisbursements      decimal.Decimal
	Reserved                decimal.Decimal
	Available               decimal.Decimal
	NegativeBalanceDetected bool
}
