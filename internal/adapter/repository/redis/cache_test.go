package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheSetAndGet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "fund:status", []byte(`{"balance":"30"}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "fund:status")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(val) != `{"balance":"30"}` {
		t.Fatalf("unexpected value %s", val)
	}
}

func TestCacheMissIsNil(t *testing.T) {
	client, _ := newTestRedisClient(t)
	m := newTestMetrics()
	cache := NewCache(client, m)

	val, err := cache.Get(context.Background(), "absent")
	if err != nil || val != nil {
		t.Fatalf("expected nil miss, got val=%v err=%v", val, err)
	}
	if got := testutil.ToFloat64(m.RedisErrors.WithLabelValues("cache_get")); got != 0 {
		t.Fatalf("a miss must not count as an error, got %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 5*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(6 * time.Second)

	val, err := cache.Get(ctx, "k")
	if err != nil || val != nil {
		t.Fatalf("expected expired key, got val=%s err=%v", val, err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "foo", []byte("bar"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "foo"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if val, _ := cache.Get(ctx, "foo"); val != nil {
		t.Fatalf("expected deleted key, got %s", val)
	}
}

func TestCacheRecordsErrors(t *testing.T) {
	client, mr := newTestRedisClient(t)
	m := newTestMetrics()
	cache := NewCache(client, m)
	mr.Close()

	if _, err := cache.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from closed server")
	}
	if got := testutil.ToFloat64(m.RedisErrors.WithLabelValues("cache_get")); got != 1 {
		t.Fatalf("expected one error, got %v", got)
	}
}
