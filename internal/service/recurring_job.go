package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type dueGenerator interface {
	GenerateDue(ctx context.Context, now time.Time) (int, error)
}

// RecurringJob generates recurring cash flows once a day at midnight UTC.
type RecurringJob struct {
	generator  dueGenerator
	log        *zap.SugaredLogger
	retryDelay time.Duration
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRecurringJob(generator dueGenerator, log *zap.SugaredLogger, retryDelay time.Duration) *RecurringJob {
	return &RecurringJob{
		generator:  generator,
		log:        log,
		retryDelay: retryDelay,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Run blocks until ctx is cancelled. A failed run is logged and followed by
// retryDelay before the next midnight is computed again.
func (j *RecurringJob) Run(ctx context.Context) {
	j.log.Info("Recurring cash flow job started")
	for {
		delay := untilNextMidnightUTC(j.now())
		j.log.Debugw("Recurring cash flow job sleeping", "delay", delay)
		if err := j.sleep(ctx, delay); err != nil {
			j.log.Info("Recurring cash flow job stopped")
			return
		}

		runAt := j.now()
		n, err := j.generator.GenerateDue(ctx, runAt)
		if err != nil {
			j.log.Errorw("Recurring cash flow generation failed", "error", err, "generated", n)
			if err := j.sleep(ctx, j.retryDelay); err != nil {
				j.log.Info("Recurring cash flow job stopped")
				return
			}
			continue
		}
		j.log.Infow("Recurring cash flows generated", "count", n, "at", runAt)
	}
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	next := truncateToDayUTC(now).AddDate(0, 0, 1)
	return next.Sub(now)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
