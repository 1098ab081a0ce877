package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"holdlens/internal/config"
	"holdlens/internal/dataprocessing"
	apierrors "holdlens/internal/errors"
	"holdlens/internal/infrastructure"
	"holdlens/internal/insights"
	customMiddleware "holdlens/internal/middleware"
	"holdlens/internal/services"
	"holdlens/internal/storage"
	handlers "holdlens/internal/transport/http"
)

// BuildTime is set at link time with -ldflags.
var BuildTime = "unknown"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PortfolioMetrics
	Store         storage.Store
	Portfolio     *services.PortfolioService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds the application from an explicit configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("storage_backend", cfg.Storage.Backend))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPortfolioMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := a.initializeServices(ctx); err != nil {
		return nil, err
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices opens the store and wires the domain services.
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := openStore(ctx, a.Config.Storage, a.Config.Server.MaxUploadBytes, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.Store = store

	var generator insights.Generator
	if a.Config.AI.Enabled() {
		gemini, err := insights.NewGeminiGenerator(ctx, a.Config.AI.APIKey,
			insights.WithModel(a.Config.AI.Model),
			insights.WithMaxOutputTokens(a.Config.AI.MaxOutputTokens),
			insights.WithLogger(a.Logger))
		if err != nil {
			return fmt.Errorf("failed to initialize insights: %w", err)
		}
		generator = gemini
	} else {
		a.Logger.WarnContext(ctx, "AI insights disabled", slog.String("reason", "no API key configured"))
	}

	insighter := insights.NewInsighter(generator, insights.Options{
		Currency:       a.Config.AI.Currency,
		Timeout:        a.Config.AI.Timeout,
		MaxPromptChars: a.Config.AI.MaxPromptChars,
		Metrics:        a.Metrics,
		Logger:         a.Logger,
	})

	a.Portfolio = services.NewPortfolioService(services.PortfolioServiceOptions{
		Store:     store,
		KeyPrefix: a.Config.Storage.Prefix,
		Insighter: insighter,
		Metrics:   a.Metrics,
		Logger:    a.Logger,

		MaxUnzipBytes: dataprocessing.UnzipLimit(a.Config.Server.MaxUploadBytes),
	})
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, store, insighter.Enabled(), a.Logger)

	return nil
}

// openStore returns the blob store selected by cfg.Backend.
func openStore(ctx context.Context, cfg config.StorageConfig, maxBytes int64, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return storage.NewLocalStore(cfg.LocalRoot, maxBytes, logger)
	case config.StorageBackendS3:
		return storage.NewS3StoreFromConfig(ctx, cfg, maxBytes, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// setupRouter configures the router.
// Middleware order: RequestID → RealIP → CORS → OTel → Logger → Recoverer → SecurityHeaders → RateLimiter → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	// Preflight requests never reach a route handler, so CORS runs on the root mux.
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	portfolioHandler := handlers.NewPortfolioHandler(a.Portfolio, a.Config.Server.MaxUploadBytes, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		portfolioHandler.Routes(r)
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start begins serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop drains in-flight requests and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the application and blocks until SIGINT, SIGTERM or a server
// failure, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline.
	return a.Stop(context.Background())
}

