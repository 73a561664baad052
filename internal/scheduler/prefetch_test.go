package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fairweather/internal/types"
)

// ============================================================
// Mock Implementations
// ============================================================

type mockLocationSource struct {
	locs []types.Location
	err  error
}

func (m *mockLocationSource) Locations(_ context.Context) ([]types.Location, error) {
	return m.locs, m.err
}

// mockRefresher fails for the locations listed in failFor and tracks the
// highest number of concurrent calls.
type mockRefresher struct {
	mu        sync.Mutex
	refreshed []types.Location
	failFor   map[types.Location]bool
	delay     time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockRefresher) Refresh(ctx context.Context, loc types.Location) error {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.failFor[loc] {
		return errors.New("upstream unavailable")
	}
	m.mu.Lock()
	m.refreshed = append(m.refreshed, loc)
	m.mu.Unlock()
	return nil
}

type mockPrefetchMetrics struct {
	calls     int
	succeeded int
	failed    int
}

func (m *mockPrefetchMetrics) RecordPrefetch(_ context.Context, succeeded, failed int, _ time.Duration) {
	m.calls++
	m.succeeded, m.failed = succeeded, failed
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func locations(n int) []types.Location {
	out := make([]types.Location, n)
	for i := range out {
		out[i] = types.Location{Lat: 40 + float64(i)/100, Lon: -3.7}
	}
	return out
}

// ============================================================
// Prefetcher.Run
// ============================================================

func TestPrefetcherRun_RefreshesEveryLocation(t *testing.T) {
	locs := locations(5)
	ref := &mockRefresher{}
	metrics := &mockPrefetchMetrics{}
	p := NewPrefetcher(PrefetcherConfig{
		Source:    &mockLocationSource{locs: locs},
		Refresher: ref,
		Metrics:   metrics,
		Logger:    testLogger(),
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Locations != 5 || res.Succeeded != 5 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(ref.refreshed) != 5 {
		t.Errorf("expected 5 refreshes, got %d", len(ref.refreshed))
	}
	if metrics.calls != 1 || metrics.succeeded != 5 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestPrefetcherRun_FailureDoesNotStopOthers(t *testing.T) {
	locs := locations(4)
	ref := &mockRefresher{failFor: map[types.Location]bool{locs[1]: true}}
	metrics := &mockPrefetchMetrics{}
	p := NewPrefetcher(PrefetcherConfig{
		Source:      &mockLocationSource{locs: locs},
		Refresher:   ref,
		Metrics:     metrics,
		Concurrency: 1,
		Logger:      testLogger(),
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("a single failed location must not fail the run: %v", err)
	}
	if res.Succeeded != 3 || res.Failed != 1 {
		t.Errorf("expected 3 succeeded and 1 failed, got %+v", res)
	}
	if metrics.failed != 1 {
		t.Errorf("expected 1 failure recorded, got %d", metrics.failed)
	}
}

func TestPrefetcherRun_BoundsConcurrency(t *testing.T) {
	ref := &mockRefresher{delay: 20 * time.Millisecond}
	p := NewPrefetcher(PrefetcherConfig{
		Source:      &mockLocationSource{locs: locations(12)},
		Refresher:   ref,
		Concurrency: 3,
		Logger:      testLogger(),
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Succeeded != 12 {
		t.Errorf("expected 12 successes, got %d", res.Succeeded)
	}
	if peak := ref.peak.Load(); peak > 3 {
		t.Errorf("expected at most 3 concurrent refreshes, saw %d", peak)
	}
}

func TestPrefetcherRun_ListError(t *testing.T) {
	metrics := &mockPrefetchMetrics{}
	p := NewPrefetcher(PrefetcherConfig{
		Source:    &mockLocationSource{err: errors.New("connection refused")},
		Refresher: &mockRefresher{},
		Metrics:   metrics,
		Logger:    testLogger(),
	})

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected an error when locations cannot be listed")
	}
	if metrics.calls != 0 {
		t.Error("metrics must not be recorded for a run that never started")
	}
}

func TestPrefetcherRun_NoLocations(t *testing.T) {
	metrics := &mockPrefetchMetrics{}
	p := NewPrefetcher(PrefetcherConfig{
		Source:    &mockLocationSource{},
		Refresher: &mockRefresher{},
		Metrics:   metrics,
		Logger:    testLogger(),
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Locations != 0 || metrics.calls != 1 {
		t.Errorf("expected an empty run to be recorded, got %+v / %+v", res, metrics)
	}
}

func TestPrefetcherRun_CancelledContextCountsRemainingAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := &mockRefresher{}
	p := NewPrefetcher(PrefetcherConfig{
		Source:    &mockLocationSource{locs: locations(3)},
		Refresher: ref,
		Logger:    testLogger(),
	})

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed != 3 || len(ref.refreshed) != 0 {
		t.Errorf("expected every location skipped, got %+v", res)
	}
}

func TestNewPrefetcher_DefaultConcurrency(t *testing.T) {
	p := NewPrefetcher(PrefetcherConfig{Concurrency: -1})
	if p.concurrency != defaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", defaultConcurrency, p.concurrency)
	}
	if p.logger == nil {
		t.Error("expected a default logger")
	}
}

// ============================================================
// Schedule
// ============================================================

func TestSchedule_RunsImmediatelyAndStops(t *testing.T) {
	done := make(chan struct{}, 1)
	src := &notifyingSource{done: done}
	p := NewPrefetcher(PrefetcherConfig{
		Source:    src,
		Refresher: &mockRefresher{},
		Logger:    testLogger(),
	})
	s := NewSchedule(p, time.Hour, testLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first run to start immediately")
	}
	if !s.IsRunning() {
		t.Error("expected the scheduler to be running")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected the scheduler to be stopped")
	}
}

func TestNewSchedule_DefaultInterval(t *testing.T) {
	s := NewSchedule(nil, 0, nil)
	if s.interval != defaultInterval {
		t.Errorf("expected %s, got %s", defaultInterval, s.interval)
	}
}

type notifyingSource struct {
	done chan struct{}
}

func (n *notifyingSource) Locations(_ context.Context) ([]types.Location, error) {
	select {
	case n.done <- struct{}{}:
	default:
	}
	return nil, nil
}
