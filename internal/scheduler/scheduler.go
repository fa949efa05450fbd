// Package scheduler runs the periodic booking completion and ledger
// reconciliation jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shuttle/internal/services"
	"shuttle/internal/utils"
)

const jobTimeout = 2 * time.Minute

type Completer interface {
	CompleteDeparted(ctx context.Context) (int64, error)
}

type Reconciler interface {
	Run(ctx context.Context) (services.ReconcileReport, error)
}

type Config struct {
	CompletionSchedule string
	ReconcileSchedule  string
}

// New registers both jobs on a UTC cron. Overlapping runs of the same job are
// skipped.
func New(cfg Config, completer Completer, reconciler Reconciler) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	if _, err := c.AddFunc(cfg.CompletionSchedule, func() { completeJob(completer) }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.ReconcileSchedule, func() { reconcileJob(reconciler) }); err != nil {
		return nil, err
	}
	utils.LogEvent(context.Background(), "scheduler", "init", "jobs scheduled",
		zap.String("completion", cfg.CompletionSchedule), zap.String("reconcile", cfg.ReconcileSchedule))
	return c, nil
}

func completeJob(completer Completer) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := completer.CompleteDeparted(ctx)
	if err != nil {
		utils.LogError(ctx, "scheduler", "complete", "booking completion run failed", err)
		return
	}
	utils.LogEvent(ctx, "scheduler", "complete", "booking completion run finished", zap.Int64("completed", n))
}

func reconcileJob(reconciler Reconciler) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	report, err := reconciler.Run(ctx)
	if err != nil {
		utils.LogError(ctx, "scheduler", "reconcile", "reconciliation run failed", err)
		return
	}
	utils.LogEvent(ctx, "scheduler", "reconcile", "reconciliation run finished",
		zap.Int("scanned", report.Scanned), zap.Int("resolved", report.Resolved), zap.Int("failed", report.Failed))
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.Logger().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.Logger().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
