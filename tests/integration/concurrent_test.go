package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
	"github.com/iho/fundledger/tests/testutil"
)

func TestConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	// floor(50 / 7) = 7 draws fit.
	stack.FundPool(t, ctx, decimal.NewFromInt(50))

	const draws = 20
	prize := decimal.NewFromInt(7)

	var (
		wg       sync.WaitGroup
		allowed  atomic.Int32
		refused  atomic.Int32
		failures atomic.Int32
	)
	wg.Add(draws)
	for i := range draws {
		go func() {
			defer wg.Done()
			d, err := stack.Guard.Reserve(ctx, usecase.ReserveInput{
				DrawID: fmt.Sprintf("draw-%d", i),
				Prizes: []domain.Prize{{Name: "first", Amount: prize}},
			})
			switch {
			case err != nil:
				failures.Add(1)
				t.Errorf("draw %d: %v", i, err)
			case d.Allowed:
				allowed.Add(1)
			default:
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != 7 || refused.Load() != draws-7 {
		t.Fatalf("expected 7 allowed and %d refused, got %d and %d (errors: %d)", draws-7, allowed.Load(), refused.Load(), failures.Load())
	}

	status, err := stack.Guard.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Reserved.Equal(decimal.NewFromInt(49)) || !status.Available.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 49 reserved and 1 available, got %+v", status)
	}
}

func TestConcurrentPrizePayouts(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	stack.FundPool(t, ctx, decimal.NewFromInt(55))

	const claims = 10
	var (
		wg           sync.WaitGroup
		paid         atomic.Int32
		insufficient atomic.Int32
	)
	wg.Add(claims)
	for i := range claims {
		go func() {
			defer wg.Done()
			_, err := stack.Events.OnPrizeClaimed(ctx, usecase.PrizePayoutInput{
				PrizeID:  fmt.Sprintf("prize-%d", i),
				WinnerID: fmt.Sprintf("user-%d", i),
				Amount:   decimal.NewFromInt(10),
			})
			switch {
			case err == nil:
				paid.Add(1)
			case errors.Is(err, domain.ErrInsufficientRestrictedFunds):
				insufficient.Add(1)
			default:
				t.Errorf("claim %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if paid.Load() != 5 || insufficient.Load() != 5 {
		t.Fatalf("expected 5 paid and 5 refused, got %d and %d", paid.Load(), insufficient.Load())
	}

	pool, err := stack.Calculator.BalanceOf(ctx, domain.AccountPrizePool)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !pool.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected pool 5, got %s", pool)
	}
}

func TestConcurrentDuplicateDeliveries(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack(ctx)

	in := usecase.MembershipPaymentInput{PaymentID: "pay-1", UserID: "user-1", Amount: decimal.NewFromInt(100)}

	const deliveries = 10
	var (
		wg     sync.WaitGroup
		posted atomic.Int32
		txIDs  sync.Map
	)
	wg.Add(deliveries)
	for i := range deliveries {
		go func() {
			defer wg.Done()
			res, err := stack.Events.OnMembershipPaymentConfirmed(ctx, in)
			if err != nil {
				t.Errorf("delivery %d: %v", i, err)
				return
			}
			if !res.Replayed {
				posted.Add(1)
			}
			txIDs.Store(res.TransactionID, struct{}{})
		}()
	}
	wg.Wait()

	if posted.Load() != 1 {
		t.Fatalf("expected exactly one posting, got %d", posted.Load())
	}
	distinct := 0
	txIDs.Range(func(_, _ any) bool { distinct++; return true })
	if distinct != 1 {
		t.Fatalf("expected every delivery to report one transaction, got %d", distinct)
	}

	pool, err := stack.Calculator.BalanceOf(ctx, domain.AccountPrizePool)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !pool.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected pool 30, got %s", pool)
	}
}
