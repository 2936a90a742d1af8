package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitMembership(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		amount     string
		incomePct  string
		poolPct    string
		wantIncome string
		wantPool   string
	}{
		{name: "default split", amount: "100", incomePct: "70", poolPct: "30", wantIncome: "70", wantPool: "30"},
		{name: "rounds income to cents", amount: "33.33", incomePct: "70", poolPct: "30", wantIncome: "23.33", wantPool: "10.00"},
		{name: "half to even", amount: "0.15", incomePct: "50", poolPct: "50", wantIncome: "0.08", wantPool: "0.07"},
		{name: "all income", amount: "12.34", incomePct: "100", poolPct: "0", wantIncome: "12.34", wantPool: "0"},
		{name: "fractional percentages", amount: "200", incomePct: "62.5", poolPct: "37.5", wantIncome: "125", wantPool: "75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			split, err := SplitMembership(amount, decimal.RequireFromString(tt.incomePct), decimal.RequireFromString(tt.poolPct))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !split.Income.Equal(decimal.RequireFromString(tt.wantIncome)) {
				t.Fatalf("income = %s, want %s", split.Income, tt.wantIncome)
			}
			if !split.Pool.Equal(decimal.RequireFromString(tt.wantPool)) {
				t.Fatalf("pool = %s, want %s", split.Pool, tt.wantPool)
			}
			if !split.Income.Add(split.Pool).Equal(amount) {
				t.Fatalf("split does not sum to amount: %s + %s != %s", split.Income, split.Pool, amount)
			}
		})
	}
}

func TestSplitMembership_Invalid(t *testing.T) {
	t.Parallel()

	hundredAmt := decimal.NewFromInt(100)

	if _, err := SplitMembership(hundredAmt, decimal.NewFromInt(70), decimal.NewFromInt(20)); !errors.Is(err, ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}
	if _, err := SplitMembership(hundredAmt, decimal.NewFromInt(110), decimal.NewFromInt(-10)); !errors.Is(err, ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit for negative pool, got %v", err)
	}
	if _, err := SplitMembership(decimal.Zero, decimal.NewFromInt(70), decimal.NewFromInt(30)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
