// Package main is the entry point for the fairweather API server.
//
// It loads the configuration, connects Postgres and Redis, builds the
// upstream clients and domain services, mounts the handlers on the core
// chassis and serves HTTP until SIGINT or SIGTERM, then shuts down
// gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"fairweather/internal/activities"
	"fairweather/internal/api/handlers"
	"fairweather/internal/climate"
	"fairweather/internal/config"
	"fairweather/internal/core"
	"fairweather/internal/db"
	"fairweather/internal/external"
	"fairweather/internal/forecasts"
	"fairweather/internal/routing"
	"fairweather/internal/telemetry"
	"fairweather/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// recorder is the telemetry surface used by the API process.
type recorder interface {
	core.MetricsCollector
	forecasts.CacheMetrics
}

// application holds the infrastructure-backed dependencies of the server so
// tests can substitute in-memory implementations.
type application struct {
	activities activities.Repository
	stars      activities.StarStore
	favorites  handlers.FavoriteStore
	forecast   types.ForecastProvider
	archive    types.ArchiveProvider
	router     routing.RouteFinder
	cache      forecasts.Cache
	metrics    recorder
	clock      types.Clock
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("fairweather API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(cfg.Database.URL.Unmask(), logger); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password.Unmask(),
		DB:       cfg.Redis.DB,
	})
	cache := forecasts.NewRedisCache(rdb)

	metrics, collector, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return err
	}

	app := application{
		activities: db.NewActivityRepository(pool),
		stars:      db.NewStarRepository(pool),
		favorites:  db.NewFavoriteRepository(pool),
		forecast: external.NewOpenMeteoClient(&http.Client{Timeout: cfg.Upstream.Timeout},
			cfg.Upstream.ForecastBaseURL, cfg.Upstream.ForecastDays),
		archive: external.NewArchiveClient(&http.Client{Timeout: cfg.Upstream.ArchiveTimeout},
			cfg.Upstream.ArchiveBaseURL),
		router: external.NewOSRMClient(&http.Client{Timeout: cfg.Upstream.Timeout},
			cfg.Upstream.RoutingBaseURL),
		cache:   cache,
		metrics: metrics,
		clock:   types.RealClock{},
	}

	srv, err := buildServer(cfg, logger, app)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Dependencies = []core.Dependency{
		{Name: "postgres", Ping: pool.Ping},
		{Name: "redis", Ping: cache.Ping, Optional: true},
	}
	srv.Closers = append(srv.Closers,
		rdb.Close,
		func() error { pool.Close(); return nil },
	)

	var flushed chan struct{}
	if collector != nil {
		flushed = make(chan struct{})
		go func() {
			collector.Run(ctx)
			close(flushed)
		}()
	}

	err = runHTTPServer(ctx, srv, cfg, logger)
	stop()
	if flushed != nil {
		<-flushed
	}
	return err
}

// buildServer wires the domain services and handlers onto the core chassis
// and mounts every route.
func buildServer(cfg *config.Config, logger *slog.Logger, app application) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if app.clock == nil {
		app.clock = types.RealClock{}
	}
	if app.metrics == nil {
		app.metrics = telemetry.Nop{}
	}
	srv.Metrics = app.metrics

	forecastSvc := forecasts.NewService(app.forecast, app.archive, app.cache, forecasts.Options{
		ForecastTTL: cfg.Cache.ForecastTTL,
		ArchiveTTL:  cfg.Cache.ArchiveTTL,
		Clock:       app.clock,
		Logger:      logger,
		Metrics:     app.metrics,
	})
	guard := forecasts.NewRequestGuard()

	catalog := activities.NewCatalog(activities.DefaultPresets(), app.activities, app.clock,
		activities.WithStarStore(app.stars))
	advisor := activities.NewAdvisor(app.clock, logger)
	analyzer := routing.NewAnalyzer(app.router, forecastSvc, logger)
	climateSvc := climate.NewService(forecastSvc, app.clock)

	activityHandler := handlers.NewActivityHandler(catalog, srv.Validator, logger)
	assessmentHandler := handlers.NewAssessmentHandler(forecastSvc, catalog, advisor, guard, logger)
	evaluationHandler := handlers.NewEvaluationHandler(srv.Validator, app.clock, logger)
	routeHandler := handlers.NewRouteHandler(analyzer, guard, srv.Validator, app.clock, logger)
	climateHandler := handlers.NewClimateHandler(climateSvc, guard, logger)
	favoriteHandler := handlers.NewFavoriteHandler(app.favorites, forecastSvc, srv.Validator, app.clock, logger)
	forecastHandler := handlers.NewForecastHandler(forecastSvc, guard, app.clock, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		r.Route("/activities", activityHandler.RegisterRoutes)
		r.Route("/assessments", assessmentHandler.RegisterRoutes)
		r.Route("/evaluations", evaluationHandler.RegisterRoutes)
		r.Route("/routes", routeHandler.RegisterRoutes)
		r.Route("/climate", climateHandler.RegisterRoutes)
		r.Route("/favorites", favoriteHandler.RegisterRoutes)
		r.Route("/forecasts", forecastHandler.RegisterRoutes)
	})

	srv.MountRoutes()
	return srv, nil
}

// newMetrics returns the CloudWatch collector when metrics are enabled, and
// a no-op recorder otherwise.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (recorder, *telemetry.Collector, error) {
	if !cfg.Observability.EnableMetrics {
		return telemetry.Nop{}, nil, nil
	}
	client, err := telemetry.NewCloudWatchClient(ctx, cfg.AWS)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cloudwatch client: %w", err)
	}
	c := telemetry.NewCollector(client, cfg.Observability.MetricNamespace, logger)
	return c, c, nil
}

// runHTTPServer serves until ctx is cancelled or the listener fails, then
// drains in-flight requests within the configured shutdown timeout.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger logs JSON in deployed environments and text locally.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsLocal() {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", cfg.Service)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
