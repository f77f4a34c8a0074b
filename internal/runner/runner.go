package runner

import (
	"context"
	"log/slog"
	"time"

	"helpdesk_digest/internal/domain"
)

// Job defines the interface for a single digest run.
type Job interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

// Runner executes a job once within a deadline.
type Runner struct {
	job     Job
	timeout time.Duration
	logger  *slog.Logger
}

func New(job Job, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		job:     job,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Info("run started", "timeout", r.timeout)

	stats, err := r.job.Run(ctx)
	if err != nil {
		r.logger.Error("run failed", "error", err)
		return err
	}

	r.logger.Info("run finished",
		"delivered", stats.Delivered,
		"committed", stats.Committed,
		"failed_kinds", len(stats.FailedKinds),
		"duration", stats.Duration,
	)

	return nil
}
