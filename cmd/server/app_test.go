package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundledger/internal/infrastructure/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StorageDriver:       config.StorageSQLite,
		SQLitePath:          filepath.Join(t.TempDir(), "ledger.db"),
		MembershipIncomePct: "70",
		OutboxBatchSize:     10,
		OutboxInterval:      10 * time.Millisecond,
		IdempotencyTTL:      time.Minute,
		HTTPShutdownTimeout: time.Second,
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildApp_SQLiteWithoutRedis(t *testing.T) {
	a, err := buildApp(context.Background(), sqliteConfig(t), zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.close)

	rec := serve(t, a.handler, http.MethodPost, "/api/v1/events/membership-payments", `{"payment_id":"pay-1","amount":"50"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(t, a.handler, http.MethodGet, "/api/v1/fund/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "15.00", status["balance"])

	rec = serve(t, a.handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sqlite":"ok"`)
}

func TestBuildApp_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.RedisEventsChannel = "fundledger.events"
	cfg.FundStatusCacheTTL = time.Minute

	a, err := buildApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.close)

	rec := serve(t, a.handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/tier-bonuses", strings.NewReader(`{"reference_id":"t1","user_id":"u1","amount":"5"}`))
	req.Header.Set("Idempotency-Key", "abc")
	first := httptest.NewRecorder()
	a.handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	keys := mr.Keys()
	assert.NotEmpty(t, keys)
}

func TestBuildApp_BadChartFile(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.ChartOfAccountsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := buildApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestApp_ServeShutsDownOnCancel(t *testing.T) {
	a, err := buildApp(context.Background(), sqliteConfig(t), zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
