package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobscout/internal/model"
)

// Runner is one full pipeline cycle. Errors returned from Run are
// state-fatal; everything recoverable is already absorbed into the summary.
type Runner interface {
	Run(ctx context.Context) (*model.RunSummary, error)
}

// Scheduler owns the watch loop: an immediate run, then one run per tick.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler running the pipeline at the given interval.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It returns nil when ctx is cancelled (graceful
// shutdown) and an error only when a run fails fatally; continuing after a
// lost state save would re-notify every posting on every later cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	if err := s.runOnce(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			if err := s.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	if _, err := s.runner.Run(ctx); err != nil {
		// Cancellation mid-run surfaces as a run error; that is a
		// shutdown, not a failure.
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run aborted: %w", err)
	}
	return nil
}
