package performance

import (
	"context"
	"fmt"
	"time"

	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EnqueueRollup schedules a rollup of p on the low priority queue.
func EnqueueRollup(ctx context.Context, enq task.Enqueuer, p RollupPayload) error {
	t, err := task.NewJSONTask(taskname.PerformanceRollup, p,
		asynq.Queue(task.QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		return err
	}
	if _, err := enq.Enqueue(ctx, t); err != nil {
		return err
	}
	return nil
}

// HandleRollupTask runs on the worker for taskname.PerformanceRollup.
func (s *Service) HandleRollupTask(ctx context.Context, t *asynq.Task) error {
	var p RollupPayload
	if err := task.DecodePayload(t, &p); err != nil {
		zap.L().Error("invalid rollup payload", zap.Error(err))
		return err
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("invalid rollup month %d: %w", p.Month, asynq.SkipRetry)
	}

	workers := []int64{p.WorkerID}
	if p.WorkerID == 0 {
		var err error
		workers, err = s.ActiveWorkers(ctx, p.Month, p.Year)
		if err != nil {
			return err
		}
	}

	zap.L().Info("processing performance rollup", zap.Int("month", p.Month), zap.Int("year", p.Year), zap.Int("workers", len(workers)))

	for _, w := range workers {
		if _, err := s.Rollup(ctx, w, p.Month, p.Year); err != nil {
			return err
		}
	}

	zap.L().Info("finished performance rollup", zap.Int("month", p.Month), zap.Int("year", p.Year))
	return nil
}
