package redis

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, nil)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetClaimsNewKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, nil)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"pending").Bytes()
	if err != nil || !IsProcessing(val) {
		t.Fatalf("expected processing marker, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_ConcurrentClaims(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, nil)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exists, _, err := store.CheckAndSet(ctx, "same", nil, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if !exists {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one claim, got %d", winners)
	}
}

func TestIdempotencyStore_UpdateAndRelease(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client, nil)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "k", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.Update(ctx, "k", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "k", nil, time.Minute)
	if err != nil || !exists || string(resp) != "done" {
		t.Fatalf("expected stored response, got exists=%v resp=%s err=%v", exists, resp, err)
	}

	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	exists, _, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected key to be claimable after release, got exists=%v err=%v", exists, err)
	}
}
