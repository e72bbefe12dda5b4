package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

func Every(ctx context.Context, interval time.Duration, name string, logger *zap.Logger, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	// run immediately
	if err := task(ctx); err != nil {
		logger.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				logger.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
			}
		}
	}
}
