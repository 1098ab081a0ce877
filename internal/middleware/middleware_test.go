package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"holdlens/internal/config"
	apierrors "holdlens/internal/errors"
	"holdlens/internal/infrastructure"
	"holdlens/internal/shared/testutil"
)

func TestRequestID(t *testing.T) {
	var gotOwn, gotChi, gotTrace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwn = GetRequestID(r.Context())
		gotChi = chimw.GetReqID(r.Context())
		gotTrace = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, gotOwn)
	assert.Equal(t, gotOwn, gotChi)
	assert.Equal(t, gotOwn, gotTrace)
	assert.Equal(t, gotOwn, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", gotOwn)
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)

	h := RequestID(Recoverer(eh)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(500), body["status"])
	assert.NotEmpty(t, body["trace_id"])
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func newTestRateLimiter(t *testing.T, rps float64, burst int) *RateLimiter {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewRateLimiter(rps, burst, logger, apierrors.NewErrorHandler(logger, false))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterPerClient(t *testing.T) {
	h := RequestID(newTestRateLimiter(t, 0.5, 1).Handler(okHandler()))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/sample", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	limited := call("10.0.0.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "3", limited.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeRateLimit, body["type"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error_code"])
	assert.NotEmpty(t, body["trace_id"])

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code)
}

func TestRateLimiterIgnoresForwardedHeaders(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	h := RealIP(rl.Handler(okHandler()))

	allowed := 0
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, rl.clients())
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	now := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Handler(okHandler())

	call := func(addr string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	call("10.0.0.1:1")
	call("10.0.0.2:1")
	assert.Equal(t, 2, rl.clients())

	now = now.Add(limiterIdleTTL / 2)
	call("10.0.0.2:1")
	now = now.Add(limiterIdleTTL / 2)
	call("10.0.0.3:1")
	assert.Equal(t, 2, rl.clients(), "10.0.0.1 idle for a full TTL is swept")

	now = now.Add(2 * limiterIdleTTL)
	call("10.0.0.4:1")
	assert.Equal(t, 1, rl.clients())
}

func TestRateLimiterCapsClients(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	rl.maxClients = 3
	now := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Handler(okHandler())

	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:1", i)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 3, rl.clients())

	// The most recent client keeps its exhausted bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRealIPKeepsPeerAddress(t *testing.T) {
	var peer, remote string
	h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peer = PeerIP(r)
		remote = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Real-IP", "192.0.2.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.0.0.1", peer)
	assert.Equal(t, "192.0.2.7", remote)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.RemoteAddr = "10.0.0.2:80"
	assert.Equal(t, "10.0.0.2", PeerIP(plain))
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/sample", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddlewareRecordsRoute(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{
		ServiceName:    "holdlens-test",
		MetricExporter: "prometheus",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := infrastructure.NewPortfolioMetrics(providers.Meter)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(providers, metrics).Handler)
	r.Get("/api/portfolios/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolios/u1", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"10.1.2.3:4567": "10.1.2.3",
		"[::1]:8080":    "::1",
		"10.1.2.3":      "10.1.2.3",
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		assert.Equal(t, want, clientIP(req), addr)
	}
}

func TestOTelMiddlewareWithoutMetrics(t *testing.T) {
	providers := &infrastructure.OTelProviders{Tracer: noop.NewTracerProvider().Tracer("test")}
	h := NewOTelMiddleware(providers, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
