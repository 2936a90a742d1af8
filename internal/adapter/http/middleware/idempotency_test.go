package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	redisadapter "github.com/iho/fundledger/internal/adapter/repository/redis"
	"github.com/iho/fundledger/internal/usecase/mocks"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn     func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, key)
	}
	return nil
}

func newPost(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/membership-payments", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorsFailClosed(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newPost("key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var updated bool
	var released string
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			released = key
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})).ServeHTTP(rr, newPost("key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if !strings.HasSuffix(released, ":key-fail") {
		t.Fatalf("expected claim to be released, got %q", released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(IdempotencyKeyHeader, "key")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReturnsCachedResponse(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			payload, _ := json.Marshal(storedResponse{Status: http.StatusCreated, Body: []byte(`{"cached":true}`)})
			return true, payload, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called when cached response exists")
	})).ServeHTTP(rr, newPost("key-123"))

	if rr.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header to be set")
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected original status 201, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != `{"cached":true}` {
		t.Fatalf("unexpected cached body: %s", got)
	}
}

func TestIdempotencyMiddleware_InFlightIsConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte("processing"), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run while the key is in flight")
	})).ServeHTTP(rr, newPost("key-busy"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_RedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mw := NewIdempotencyMiddleware(redisadapter.NewIdempotencyStore(client, nil), time.Minute, zerolog.Nop())

	var calls atomic.Int32
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"transaction_id":"tx-1","replayed":false}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newPost("key-rt"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newPost("key-rt"))

	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical replay, got %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatal("expected replay header")
	}

	// The same key on another route is a different request.
	other := httptest.NewRequest(http.MethodPost, "/api/v1/events/tier-bonuses", bytes.NewBufferString(`{}`))
	other.Header.Set(IdempotencyKeyHeader, "key-rt")
	handler.ServeHTTP(httptest.NewRecorder(), other)
	if calls.Load() != 2 {
		t.Fatalf("expected route-scoped keys, handler ran %d times", calls.Load())
	}
}

func TestIdempotencyMiddleware_PanicReleasesKey(t *testing.T) {
	store := mocks.NewMemoryIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	var calls atomic.Int32
	handler := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"transaction_id":"tx-1"}`))
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newPost("key-panic"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newPost("key-panic"))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected retry to run, got %d", second.Code)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls.Load())
	}
}

func TestMemoryIdempotencyStore_ReleaseAllowsReclaim(t *testing.T) {
	store := mocks.NewMemoryIdempotencyStore()
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "k", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("first claim: exists=%v err=%v", exists, err)
	}
	exists, _, _ = store.CheckAndSet(ctx, "k", nil, time.Minute)
	if !exists {
		t.Fatal("expected second claim to see the marker")
	}
	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	exists, _, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("claim after release: exists=%v err=%v", exists, err)
	}
}
