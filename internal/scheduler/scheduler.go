// Package scheduler runs a job on a fixed interval and on demand.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one scheduled unit of work. Its error is logged, never fatal.
type Job func(ctx context.Context) error

// Scheduler invokes a Job every interval and whenever Trigger is called.
// Runs never overlap: triggers arriving during a run coalesce into one
// follow-up run.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger
	trigger  chan struct{}
}

// New creates a Scheduler. A non-positive interval disables periodic runs;
// Trigger still works.
func New(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a run as soon as the scheduler is idle.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
		s.logger.Info("scheduler: started", slog.Duration("interval", s.interval))
	} else {
		s.logger.Info("scheduler: started without interval")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: stopped")
			return nil
		case <-tick:
			s.run(ctx, "interval")
		case <-s.trigger:
			s.run(ctx, "trigger")
		}
	}
}

func (s *Scheduler) run(ctx context.Context, cause string) {
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Warn("scheduler: job failed",
			slog.String("cause", cause),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("scheduler: job done",
		slog.String("cause", cause),
		slog.Duration("took", time.Since(start)))
}
