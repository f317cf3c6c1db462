package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ventaperdida/internal/cache"
	"ventaperdida/internal/config"
	"ventaperdida/internal/dataprocessing"
	"ventaperdida/internal/errors"
	"ventaperdida/internal/exporter"
	"ventaperdida/internal/files"
	"ventaperdida/internal/infrastructure"
	customMiddleware "ventaperdida/internal/middleware"
	"ventaperdida/internal/services"
	handlers "ventaperdida/internal/transport/http"
	"ventaperdida/pkg/contracts"
)

const AppName = "Venta Perdida"

// BuildID is a unique identifier for this build
var BuildID = generateBuildID()

func generateBuildID() string {
	// deterministic per version, commit and day
	h := sha256.New()
	h.Write([]byte(contracts.Version))
	h.Write([]byte(contracts.GitCommit))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Tables    *config.Tables
	Router    *chi.Mux
	Server    *http.Server
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Store     files.Store
	Reports   *services.ReportService
	Health    *services.HealthService

	logFile io.Closer
	remote  *cache.RedisTier
}

// NewApplication wires every component from cfg. A missing store credential
// is returned as a CONFIG error and must be treated as fatal by the caller.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if err := cfg.CheckCredentials(); err != nil {
		return nil, errors.NewConfigError("missing source credentials", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("build_id", BuildID),
		slog.String("backend", cfg.Sources.Backend))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger.Logger,
		logFile: logger,
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = app.close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds telemetry, the source store and the report services
func (a *Application) initializeServices(ctx context.Context) error {
	telemetry, err := infrastructure.NewTelemetry(a.Config.Telemetry, contracts.Version, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.Telemetry = telemetry

	a.Tables = a.loadTables()

	store, err := files.NewStore(ctx, a.Config.Sources)
	if err != nil {
		return errors.NewSourceUnavailableError("failed to open source store", err)
	}
	a.Store = store

	if addr := a.Config.Cache.RedisAddr; addr != "" {
		remote, err := cache.NewRedisTier(ctx, addr, a.Config.Cache.RedisDB, a.Config.Cache.RedisTTL)
		if err != nil {
			// local memoization still works
			a.Logger.WarnContext(ctx, "Shared cache unavailable",
				slog.String("addr", addr),
				slog.String("error", err.Error()))
		} else {
			a.remote = remote
		}
	}

	pipeline := dataprocessing.NewPipeline(store, a.Tables, a.Config.Sources, a.Logger, telemetry.Metrics)
	a.Reports = services.NewReportService(pipeline, a.Tables, exporter.NewExporter(a.Logger), services.ReportOptions{
		RefreshInterval: a.Config.Sources.RefreshInterval,
		MaxEntries:      a.Config.Cache.MaxEntries,
		Remote:          a.remote,
	}, a.Logger, telemetry.Metrics)

	a.Health = services.NewHealthService(contracts.Version, contracts.BuildTime, store.Backend(), a.Paths.ExportsDir, a.Reports, a.Logger)
	return nil
}

// loadTables reads the recoding tables, falling back to the built-in ones
func (a *Application) loadTables() *config.Tables {
	path := a.Config.Sources.TablesFile
	if path == "" || !config.FileExists(path) {
		a.Logger.Warn("Tables file not found, using built-in tables", slog.String("path", path))
		return config.DefaultTables()
	}
	tables, err := config.LoadTables(path)
	if err != nil {
		a.Logger.Warn("Failed to load tables, using built-in tables",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return config.DefaultTables()
	}
	return tables
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")

	// RequestID → OTel → Logger → Recoverer → Security → CORS → RateLimit
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.NewOTelMiddleware(a.Telemetry.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errors.RecoveryMiddleware(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			errorHandler,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		reportHandler := handlers.NewReportHandler(a.Reports, customMiddleware.NewQueryValidator(a.Logger), a.Logger, errorHandler)
		r.Mount("/", reportHandler.Routes())
	})

	r.Mount("/metrics", handlers.NewMetricsHandler(a.Telemetry.PrometheusHTTP).Routes())

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background and warms the dataset. A server
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("executable_dir", a.Paths.ExecutableDir),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("exports_dir", a.Paths.ExportsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go a.warmUp(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// warmUp runs the first load so readiness flips without waiting for a request
func (a *Application) warmUp(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, a.Config.Server.RequestTimeout)
	defer cancel()

	ds, err := a.Reports.Load(loadCtx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Initial load failed", slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Initial load complete",
		slog.String("version", ds.Version),
		slog.Int("files", ds.Files),
		slog.Int("files_loaded", ds.FilesLoaded),
		slog.Int("rows", len(ds.Rows)))
}

// Stop shuts the server down gracefully and releases every resource
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return a.close(shutdownCtx)
}

func (a *Application) close(ctx context.Context) error {
	if c, ok := a.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing source store", slog.String("error", err.Error()))
		}
	}
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing shared cache", slog.String("error", err.Error()))
		}
	}
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down telemetry", slog.String("error", err.Error()))
		}
	}
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// Run runs the application until interrupted
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
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped")
	}

	return a.Stop(ctx)
}
