package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/carelink/mission-service/internal/application"
)

type Sweeper interface {
	RunScheduledSweep(ctx context.Context) (bool, application.SweepReport, error)
	ExpireUnstartedMissions(ctx context.Context) (application.SweepReport, error)
}

// SweepWorker drives the expiry sweep on a fixed tick. Whether a tick actually
// sweeps is decided by the service through its lock and watermark.
type SweepWorker struct {
	logger   *slog.Logger
	sweeper  Sweeper
	interval time.Duration
}

func NewSweepWorker(logger *slog.Logger, sweeper Sweeper, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepWorker{logger: logger, sweeper: sweeper, interval: interval}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *SweepWorker) RunOnce(ctx context.Context) {
	ran, report, err := w.sweeper.RunScheduledSweep(ctx)
	switch {
	case err != nil:
		w.logger.ErrorContext(ctx, "expiry sweep failed",
			"module", "events.sweep_worker",
			"layer", "adapter",
			"operation", "run_expiry_sweep",
			"outcome", "failure",
			"error", err,
		)
	case ran:
		w.logger.InfoContext(ctx, "expiry sweep completed",
			"module", "events.sweep_worker",
			"layer", "adapter",
			"operation", "run_expiry_sweep",
			"outcome", "success",
			"missions_completed", report.MissionsCompleted,
			"missions_expired", report.MissionsExpired,
			"requests_expired", report.RequestsExpired,
			"conflicts", report.Conflicts,
		)
	}

	unstarted, err := w.sweeper.ExpireUnstartedMissions(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "unstarted mission expiry failed",
			"module", "events.sweep_worker",
			"layer", "adapter",
			"operation", "expire_unstarted_missions",
			"outcome", "failure",
			"error", err,
		)
		return
	}
	if unstarted.Changed() > 0 {
		w.logger.InfoContext(ctx, "unstarted missions expired",
			"module", "events.sweep_worker",
			"layer", "adapter",
			"operation", "expire_unstarted_missions",
			"outcome", "success",
			"missions_expired", unstarted.MissionsExpired,
		)
	}
}
