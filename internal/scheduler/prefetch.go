// Package scheduler runs the forecast prefetch job. It warms the forecast
// cache for every favorite location so that assessments for saved places are
// served from Redis.
//
// The same Prefetcher backs both entry points: a gocron schedule for local
// and long-running deployments, and a scheduled Lambda (cmd/prefetcher).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fairweather/internal/types"
)

const (
	defaultConcurrency = 4
	// Upper bound for refreshing a single location.
	locationTimeout = 20 * time.Second
)

// LocationSource lists the distinct favorite locations to warm.
type LocationSource interface {
	Locations(ctx context.Context) ([]types.Location, error)
}

// Refresher fetches a location's forecast and stores it in the cache.
type Refresher interface {
	Refresh(ctx context.Context, loc types.Location) error
}

// PrefetchMetrics records the outcome of a run.
type PrefetchMetrics interface {
	RecordPrefetch(ctx context.Context, succeeded, failed int, d time.Duration)
}

// PrefetchResult summarizes one run.
type PrefetchResult struct {
	Locations int           `json:"locations"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// PrefetcherConfig holds the dependencies of a Prefetcher.
type PrefetcherConfig struct {
	Source      LocationSource
	Refresher   Refresher
	Metrics     PrefetchMetrics
	Concurrency int
	Logger      *slog.Logger
}

// Prefetcher refreshes every favorite location with bounded concurrency.
type Prefetcher struct {
	source      LocationSource
	refresher   Refresher
	metrics     PrefetchMetrics
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewPrefetcher(cfg PrefetcherConfig) *Prefetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Prefetcher{
		source:      cfg.Source,
		refresher:   cfg.Refresher,
		metrics:     cfg.Metrics,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Run refreshes every location once. A failing location is logged and
// counted; it never stops the others. Only a failure to list the locations
// fails the run.
func (p *Prefetcher) Run(ctx context.Context) (PrefetchResult, error) {
	start := p.now()
	locs, err := p.source.Locations(ctx)
	if err != nil {
		return PrefetchResult{}, fmt.Errorf("prefetch: listing locations: %w", err)
	}

	var succeeded, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, loc := range locs {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			lctx, cancel := context.WithTimeout(ctx, locationTimeout)
			defer cancel()
			if err := p.refresher.Refresh(lctx, loc); err != nil {
				failed.Add(1)
				p.logger.WarnContext(ctx, "prefetch failed", "location", loc.String(), "error", err)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := PrefetchResult{
		Locations: len(locs),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Duration:  p.now().Sub(start),
	}
	if p.metrics != nil {
		p.metrics.RecordPrefetch(ctx, res.Succeeded, res.Failed, res.Duration)
	}
	p.logger.InfoContext(ctx, "prefetch complete",
		"locations", res.Locations,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
