// Package main is the entry point for the forecast prefetcher.
//
// On Lambda it is invoked by an EventBridge schedule and performs one run per
// invocation. Elsewhere it keeps a gocron schedule running until SIGINT or
// SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/redis/go-redis/v9"

	"fairweather/internal/config"
	"fairweather/internal/db"
	"fairweather/internal/external"
	"fairweather/internal/forecasts"
	"fairweather/internal/scheduler"
	"fairweather/internal/telemetry"
	"fairweather/internal/types"
)

// recorder is the telemetry surface used by the prefetcher.
type recorder interface {
	forecasts.CacheMetrics
	scheduler.PrefetchMetrics
}

// flusher publishes buffered metrics before the process freezes or exits.
type flusher interface {
	Flush(ctx context.Context)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password.Unmask(),
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var metrics recorder = telemetry.Nop{}
	var flush flusher = noFlush{}
	if cfg.Observability.EnableMetrics {
		client, err := telemetry.NewCloudWatchClient(ctx, cfg.AWS)
		if err != nil {
			return fmt.Errorf("creating cloudwatch client: %w", err)
		}
		c := telemetry.NewCollector(client, cfg.Observability.MetricNamespace, logger)
		metrics, flush = c, c
	}

	svc := forecasts.NewService(
		external.NewOpenMeteoClient(&http.Client{Timeout: cfg.Upstream.Timeout},
			cfg.Upstream.ForecastBaseURL, cfg.Upstream.ForecastDays),
		nil,
		forecasts.NewRedisCache(rdb),
		forecasts.Options{
			ForecastTTL: cfg.Cache.ForecastTTL,
			ArchiveTTL:  cfg.Cache.ArchiveTTL,
			Clock:       types.RealClock{},
			Logger:      logger,
			Metrics:     metrics,
		},
	)

	p := scheduler.NewPrefetcher(scheduler.PrefetcherConfig{
		Source:      db.NewFavoriteRepository(pool),
		Refresher:   svc,
		Metrics:     metrics,
		Concurrency: cfg.Prefetch.Concurrency,
		Logger:      logger,
	})

	if onLambda() {
		logger.Info("prefetcher starting on Lambda")
		lambda.Start(newHandler(p, flush))
		return nil
	}
	return runScheduled(ctx, p, flush, cfg.Prefetch.Interval, logger)
}

// newHandler returns the Lambda handler: one run per invocation, with metrics
// flushed before the execution environment is frozen.
func newHandler(p *scheduler.Prefetcher, flush flusher) func(context.Context) (scheduler.PrefetchResult, error) {
	return func(ctx context.Context) (scheduler.PrefetchResult, error) {
		res, err := p.Run(ctx)
		flush.Flush(context.WithoutCancel(ctx))
		return res, err
	}
}

func runScheduled(ctx context.Context, p *scheduler.Prefetcher, flush flusher, interval time.Duration, logger *slog.Logger) error {
	s := scheduler.NewSchedule(p, interval, logger)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("starting schedule: %w", err)
	}
	<-ctx.Done()
	logger.Info("shutdown signal received")
	s.Stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flush.Flush(flushCtx)
	return nil
}

func onLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}

type noFlush struct{}

func (noFlush) Flush(context.Context) {}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsLocal() {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", "prefetcher")
}
