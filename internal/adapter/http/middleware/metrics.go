package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// idCollections are path prefixes whose next segment is an identifier.
var idCollections = []string{
	"/api/v1/accounts/",
	"/api/v1/draws/",
	"/api/v1/transactions/",
	"/api/v1/events/withdrawals/",
}

// Metrics returns middleware that records HTTP metrics.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newResponseRecorder(w)
			next.ServeHTTP(rec, r)

			path := routePattern(r)
			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// routePattern prefers chi's matched pattern and falls back to normalizePath.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/draws/draw-42 -> /api/v1/draws/:id
func normalizePath(path string) string {
	for _, prefix := range idCollections {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" || rest[0] == '/' {
			continue
		}
		suffix := ""
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			suffix = rest[i:]
		}
		return prefix + ":id" + suffix
	}
	return path
}
