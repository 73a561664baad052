// Package forecasts serves hourly forecasts and historical archives through a
// shared cache. Misses for the same cell are collapsed into one upstream call;
// cache faults degrade to a direct fetch.
package forecasts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"fairweather/internal/types"
)

const (
	DefaultForecastTTL = time.Hour
	DefaultArchiveTTL  = 30 * 24 * time.Hour
)

// Cache kinds reported to CacheMetrics.
const (
	KindForecast = "forecast"
	KindArchive  = "archive"
)

// archiveEpoch is the first day requested from the archive.
var archiveEpoch = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// CacheMetrics observes cache lookups.
type CacheMetrics interface {
	RecordCacheLookup(ctx context.Context, kind string, hit bool)
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	ForecastTTL time.Duration
	ArchiveTTL  time.Duration
	Clock       types.Clock
	Logger      *slog.Logger
	Metrics     CacheMetrics
}

// Service is a cache-aside front for the forecast and archive providers.
type Service struct {
	forecast types.ForecastProvider
	archive  types.ArchiveProvider
	cache    Cache
	codec    *codec
	group    singleflight.Group

	forecastTTL time.Duration
	archiveTTL  time.Duration
	clock       types.Clock
	logger      *slog.Logger
	metrics     CacheMetrics
}

// NewService wires the providers to the cache. A nil cache disables caching.
func NewService(forecast types.ForecastProvider, archive types.ArchiveProvider, cache Cache, opts Options) *Service {
	s := &Service{
		forecast:    forecast,
		archive:     archive,
		cache:       cache,
		codec:       newCodec(),
		forecastTTL: opts.ForecastTTL,
		archiveTTL:  opts.ArchiveTTL,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if s.forecastTTL <= 0 {
		s.forecastTTL = DefaultForecastTTL
	}
	if s.archiveTTL <= 0 {
		s.archiveTTL = DefaultArchiveTTL
	}
	if s.clock == nil {
		s.clock = types.RealClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ForecastKey is the cache key of the forecast cell containing loc. Cells are
// 0.01° (about 1 km).
func ForecastKey(loc types.Location) string {
	return fmt.Sprintf("forecast:v1:%.2f:%.2f", loc.Lat, loc.Lon)
}

// ClimateKey is the cache key of the archive cell containing loc. Cells are
// 0.1° (about 11 km).
func ClimateKey(loc types.Location) string {
	return fmt.Sprintf("hist_v3_%.1f_%.1f", loc.Lat, loc.Lon)
}

// Hourly returns the hourly forecast for loc. It implements
// types.ForecastProvider so route analysis and the prefetcher share the cache.
func (s *Service) Hourly(ctx context.Context, loc types.Location) (*types.HourlySeries, error) {
	var out types.HourlySeries
	err := s.load(ctx, KindForecast, ForecastKey(loc), s.forecastTTL, &out, func(ctx context.Context) (any, error) {
		return s.forecast.Hourly(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh fetches the forecast for loc bypassing the cache read and stores
// the result.
func (s *Service) Refresh(ctx context.Context, loc types.Location) error {
	series, err := s.forecast.Hourly(ctx, loc)
	if err != nil {
		return err
	}
	s.store(ctx, ForecastKey(loc), series, s.forecastTTL)
	return nil
}

// History returns every daily observation from 1950 up to yesterday for the
// archive cell containing loc. The archive is queried at the cell centre so
// all callers in a cell share one payload.
func (s *Service) History(ctx context.Context, loc types.Location) (*types.DailySeries, error) {
	cell := types.Location{Lat: roundTo(loc.Lat, 1), Lon: roundTo(loc.Lon, 1)}
	var out types.DailySeries
	err := s.load(ctx, KindArchive, ClimateKey(loc), s.archiveTTL, &out, func(ctx context.Context) (any, error) {
		end := s.clock.Now().UTC().AddDate(0, 0, -1)
		return s.archive.Daily(ctx, cell, archiveEpoch, end)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// load reads key from the cache into dst, or runs fetch once across concurrent
// callers and stores its result.
func (s *Service) load(ctx context.Context, kind, key string, ttl time.Duration, dst any, fetch func(context.Context) (any, error)) error {
	if s.lookup(ctx, kind, key, dst) {
		return nil
	}

	payload, err, shared := s.group.Do(key, func() (any, error) {
		// The flight outlives any one caller, so a cancelled request does not
		// abort the fetch for the others.
		fctx := context.WithoutCancel(ctx)
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		data, err := s.codec.encode(v)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalCache, "failed to encode payload", err)
		}
		if s.cache != nil {
			if err := s.cache.Set(fctx, key, data, ttl); err != nil {
				s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if shared {
		s.logger.DebugContext(ctx, "shared upstream fetch", "key", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.codec.decode(payload.([]byte), dst); err != nil {
		return types.NewAppError(types.ErrCodeInternalCache, "failed to decode payload", err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, kind, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		ok = false
	}
	if ok {
		if derr := s.codec.decode(data, dst); derr != nil {
			s.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key, "error", derr)
			ok = false
		}
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(ctx, kind, ok)
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := s.codec.encode(v)
	if err != nil {
		s.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

var _ types.ForecastProvider = (*Service)(nil)
