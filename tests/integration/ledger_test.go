package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
	"github.com/iho/fundledger/tests/testutil"
)

func TestMembershipToPayoutFlow(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	if _, err := stack.Events.OnMembershipPaymentConfirmed(ctx, usecase.MembershipPaymentInput{
		PaymentID: "pay-1", UserID: "user-1", Amount: decimal.RequireFromString("100.00"),
	}); err != nil {
		t.Fatalf("membership payment: %v", err)
	}

	decision, err := stack.Events.OnDrawCreationRequested(ctx, usecase.DrawRequest{
		DrawID: "draw-1",
		Prizes: []domain.Prize{
			{Name: "first", Amount: decimal.RequireFromString("20.00")},
			{Name: "second", Amount: decimal.RequireFromString("10.00")},
		},
	})
	if err != nil || !decision.Allowed {
		t.Fatalf("expected draw to be allowed, got %+v %v", decision, err)
	}

	for _, claim := range []usecase.PrizePayoutInput{
		{PrizeID: "prize-1", DrawID: "draw-1", WinnerID: "user-2", Amount: decimal.RequireFromString("20.00")},
		{PrizeID: "prize-2", DrawID: "draw-1", WinnerID: "user-3", Amount: decimal.RequireFromString("10.00")},
	} {
		if _, err := stack.Events.OnPrizeClaimed(ctx, claim); err != nil {
			t.Fatalf("claim %s: %v", claim.PrizeID, err)
		}
	}

	reservation, err := stack.Reservations.GetByDrawID(ctx, "draw-1")
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if reservation.Status != domain.ReservationStatusConsumed || !reservation.Remaining.IsZero() {
		t.Fatalf("expected consumed reservation, got %+v", reservation)
	}

	expect := map[string]string{
		domain.AccountCash:             "100",
		domain.AccountPrizePool:        "0",
		domain.AccountMemberWallet:     "30",
		domain.AccountMembershipIncome: "70",
	}
	for code, want := range expect {
		got, err := stack.Calculator.BalanceOf(ctx, code)
		if err != nil {
			t.Fatalf("balance %s: %v", code, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("account %s: expected %s, got %s", code, want, got)
		}
	}

	_, err = stack.Events.OnPrizeClaimed(ctx, usecase.PrizePayoutInput{
		PrizeID: "prize-3", WinnerID: "user-4", Amount: decimal.RequireFromString("0.01"),
	})
	if !errors.Is(err, domain.ErrInsufficientRestrictedFunds) {
		t.Fatalf("expected ErrInsufficientRestrictedFunds on empty pool, got %v", err)
	}

	report, err := stack.Recon.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	if !report.LedgerConsistent || len(report.Discrepancies) != 0 || report.RestrictedNegative {
		t.Fatalf("expected a clean report, got %+v", report)
	}

	consistent, err := stack.Ledger.CheckConsistency(ctx)
	if err != nil || !consistent {
		t.Fatalf("expected consistent ledger, got %v %v", consistent, err)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	if _, err := stack.Events.OnReferralBonusAccrued(ctx, usecase.BonusInput{
		ReferenceID: "ref-1", UserID: "user-1", Amount: decimal.NewFromInt(40),
	}); err != nil {
		t.Fatalf("bonus: %v", err)
	}

	if _, err := stack.Events.OnWithdrawalRequested(ctx, usecase.WithdrawalInput{
		WithdrawalID: "w-1", UserID: "user-1", Amount: decimal.NewFromInt(15),
	}, false); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := stack.Events.OnWithdrawalRejected(ctx, "w-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := stack.Events.OnWithdrawalCompleted(ctx, "w-1"); !errors.Is(err, domain.ErrWithdrawalNotPending) {
		t.Fatalf("expected ErrWithdrawalNotPending, got %v", err)
	}

	wallet, err := stack.Calculator.BalanceOf(ctx, domain.AccountMemberWallet)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !wallet.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected wallet 40 after rejection, got %s", wallet)
	}
}

func TestEntriesAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	stack.FundPool(t, ctx, decimal.NewFromInt(10))

	if _, err := testDB.Pool.Exec(ctx, `UPDATE ledger_entries SET credit = 1000 WHERE account_code = '2100'`); err == nil {
		t.Fatal("expected update of a ledger entry to fail")
	}
	if _, err := testDB.Pool.Exec(ctx, `DELETE FROM ledger_entries`); err == nil {
		t.Fatal("expected delete of ledger entries to fail")
	}
}

func TestOutboxRecordsCommitsAndReservations(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	stack.FundPool(t, ctx, decimal.NewFromInt(10))
	if _, err := stack.Events.OnDrawCreationRequested(ctx, usecase.DrawRequest{
		DrawID: "draw-1",
		Prizes: []domain.Prize{{Name: "first", Amount: decimal.NewFromInt(5)}},
	}); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if _, err := stack.Events.OnDrawCancelled(ctx, "draw-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	events, err := stack.Outbox.GetUnpublished(ctx, 100)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}

	seen := map[string]int{}
	for _, e := range events {
		seen[e.EventType]++
	}
	for _, want := range []string{
		domain.EventTypeTransactionCommitted,
		domain.EventTypeReservationCreated,
		domain.EventTypeReservationReleased,
	} {
		if seen[want] != 1 {
			t.Errorf("expected one %s event, got %d", want, seen[want])
		}
	}
}
