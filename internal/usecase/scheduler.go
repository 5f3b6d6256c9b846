package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"NewsDigest/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline use case. Runs are
// serialized: a trigger that fires while a run is in progress is skipped.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger

	running sync.Mutex
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. Run errors are
// logged; the next trigger runs regardless.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.RunNow(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunNow executes one run unless another one is in progress. It reports
// whether the run was executed.
func (s *Scheduler) RunNow(ctx context.Context, trigger time.Time) bool {
	if s.pipeline == nil {
		return false
	}
	if !s.running.TryLock() {
		s.logger.Warn("previous run still in progress, trigger skipped", "trigger", trigger)
		return false
	}
	defer s.running.Unlock()

	report, err := s.pipeline.Run(ctx, trigger)
	if err != nil {
		s.logger.Error("scheduled run failed", "run_id", report.RunID, "error", err)
	}
	return true
}

// Stop gracefully tears down the underlying scheduler and waits for a run
// in progress, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver != nil {
		if err := s.driver.Stop(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.running.Lock()
		s.running.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
