package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"
	"asenso-booking/pkg/util"
	"asenso-booking/services/membership"
	"asenso-booking/services/performance"
	"asenso-booking/services/search"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	enq  task.Enqueuer
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer task.Enqueuer
}

func NewService(p Params) *Service {
	return &Service{db: p.DB, node: p.Node, enq: p.Enqueuer}
}

// enqueue sends t and keeps a Job row of the attempt either way.
func (s *Service) enqueue(ctx context.Context, typename string, payload any, opts ...asynq.Option) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	job := Job{
		ID:        s.node.Generate().Int64(),
		TaskType:  typename,
		Status:    JobEnqueued,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}

	info, err := s.enq.Enqueue(ctx, asynq.NewTask(typename, raw), opts...)
	if err != nil {
		job.Status = JobFailed
		job.ErrorMsg = err.Error()
	} else {
		job.TaskID = info.ID
	}

	if dbErr := s.db.WithContext(ctx).Create(&job).Error; dbErr != nil {
		zap.L().Error("failed to record scheduler job", zap.String("task_type", typename), zap.Error(dbErr))
	}
	if err != nil {
		zap.L().Error("failed to enqueue scheduled task", zap.String("task_type", typename), zap.Error(err))
		return err
	}

	zap.L().Info("enqueued scheduled task", zap.String("task_type", typename), zap.String("task_id", job.TaskID))
	return nil
}

// RunDaily enqueues the nightly maintenance for the day before now: membership
// expiry, the performance rollup of that day's month and a search sync.
func (s *Service) RunDaily(ctx context.Context, now time.Time) error {
	yesterday := now.AddDate(0, 0, -1)

	return errors.Join(
		s.enqueue(ctx, taskname.MembershipExpire,
			membership.ExpirePayload{AsOf: util.FormatDate(now)},
			asynq.Queue(task.QueueDefault)),
		s.enqueue(ctx, taskname.PerformanceRollup,
			performance.RollupPayload{Month: int(yesterday.Month()), Year: yesterday.Year()},
			asynq.Queue(task.QueueLow), asynq.Timeout(5*time.Minute)),
		s.enqueue(ctx, taskname.BookingSearchSync,
			search.SyncPayload{},
			asynq.Queue(task.QueueLow), asynq.Timeout(10*time.Minute)),
	)
}
