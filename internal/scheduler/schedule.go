package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const defaultInterval = 30 * time.Minute

// Schedule runs a Prefetcher every interval, starting immediately. Runs never
// overlap: a tick that fires while a run is in progress is skipped.
type Schedule struct {
	cron       *gocron.Scheduler
	prefetcher *Prefetcher
	interval   time.Duration
	logger     *slog.Logger
	cancel     context.CancelFunc
}

func NewSchedule(p *Prefetcher, interval time.Duration, logger *slog.Logger) *Schedule {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Schedule{
		cron:       gocron.NewScheduler(time.UTC),
		prefetcher: p,
		interval:   interval,
		logger:     logger,
	}
}

// Start registers the job and starts the scheduler in the background. Runs
// use a context derived from ctx that Stop cancels.
func (s *Schedule) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	_, err := s.cron.Every(s.interval).SingletonMode().Do(func() {
		if _, err := s.prefetcher.Run(runCtx); err != nil {
			s.logger.ErrorContext(runCtx, "scheduled prefetch failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.logger.Info("prefetch scheduled", "interval", s.interval.String())
	s.cron.StartAsync()
	return nil
}

// Stop cancels any in-flight run and stops future ones.
func (s *Schedule) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cron.Stop()
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Schedule) IsRunning() bool {
	return s.cron.IsRunning()
}
