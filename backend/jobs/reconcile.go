// Package jobs runs the background sweeps on a cron schedule.
package jobs

import (
	"context"

	"skillhub/backend/utils"

	"github.com/robfig/cron/v3"
)

// ReconcileBatch caps how many purchases one sweep repairs.
const ReconcileBatch = 200

type Reconciler interface {
	ReconcileEnrollments(ctx context.Context, limit int) (int, error)
}

// RunReconcile makes one pass restoring enrollments for verified purchases.
func RunReconcile(ctx context.Context, r Reconciler, logger *utils.Logger) (int, error) {
	n, err := r.ReconcileEnrollments(ctx, ReconcileBatch)
	if err != nil {
		logger.Error("reconcile pass failed", "restored", n, "error", err)
		return n, err
	}
	if n > 0 {
		logger.Info("reconcile pass restored enrollments", "restored", n)
	}
	return n, nil
}

// StartReconcileScheduler runs RunReconcile on the cron schedule until ctx is done.
// Overlapping runs are skipped.
func StartReconcileScheduler(ctx context.Context, schedule string, r Reconciler, logger *utils.Logger) (*cron.Cron, error) {
	log := logger.With("job", "reconcile")
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))

	if _, err := c.AddFunc(schedule, func() {
		_, _ = RunReconcile(ctx, r, log)
	}); err != nil {
		return nil, err
	}

	c.Start()
	log.Info("reconcile scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info("reconcile scheduler stopped")
	}()
	return c, nil
}

// cronLogger adapts utils.Logger to cron.Logger.
type cronLogger struct {
	log *utils.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
