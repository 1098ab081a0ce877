package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdlens/internal/config"
	"holdlens/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Storage.Backend = config.StorageBackendLocal
	cfg.Storage.LocalRoot = t.TempDir()
	cfg.Security.RateLimit.Enabled = false
	cfg.AI.APIKey = ""
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewWiresServices(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Portfolio)
	assert.NotNil(t, a.HealthService)
	assert.NotNil(t, a.Metrics)
	assert.False(t, a.Portfolio.InsightsEnabled())
	assert.Equal(t, "127.0.0.1:0", a.Server.Addr)
	assert.Equal(t, a.Config.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "ftp"

	logger, _ := testutil.NewTestLogger(t)
	_, err := New(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}

func TestHealthRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(a, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestUnknownRouteReturnsProblem(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, float64(http.StatusNotFound), problem["status"])
}

func TestUploadThroughFullStack(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "holdings.csv")
	require.NoError(t, err)
	_, err = part.Write(testutil.CSVBytes(t, [][]string{
		{"Symbol", "Qty", "Avg. price"},
		{"INFY", "20", "1500"},
		{"HDFCBANK", "10", "1600"},
	}))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(a, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(46000), summary["total_invested"])
	assert.NotContains(t, body, "ai_insights")

	metrics := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "portfolio_analyses_total")
}

func TestStoredPortfolioRoutes(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	store := a.Store.(interface {
		Put(key string, data []byte) error
	})
	require.NoError(t, store.Put(cfg.Storage.Prefix+"/user-7/main.csv", testutil.CSVBytes(t, [][]string{
		{"symbol", "quantity", "purchase_price"},
		{"TCS", "2", "3500"},
	})))

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/portfolios/user-7/", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "main.csv")

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/analyze",
		bytes.NewBufferString(`{"user_id":"user-7","filename":"main.csv"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(a, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_invested":7000`)
}

func TestStartStop(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, ctx.Err(), "a clean shutdown must not cancel the run context")
}

func TestStartFailsOnBusyPort(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()

	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	a.Server.Addr = busy.Listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := a.Start(ctx, cancel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("failed to listen on %s", a.Server.Addr))
}

func TestCORSPreflight(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/sample", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(a, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
