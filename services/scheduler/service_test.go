package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"asenso-booking/pkg/taskname"
	"asenso-booking/services/performance"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	fail  map[string]bool
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.fail[t.Type()] {
		return nil, errors.New("redis down")
	}
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{ID: t.Type() + "-1"}, nil
}

func newTestService(t *testing.T, enq *fakeEnqueuer) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Job{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{DB: db, Node: node, Enqueuer: enq})
}

func TestRunDailyEnqueuesMaintenance(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newTestService(t, enq)

	now := time.Date(2026, 11, 1, 1, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RunDaily(context.Background(), now))

	types := make([]string, 0, len(enq.tasks))
	for _, tk := range enq.tasks {
		types = append(types, tk.Type())
	}
	require.Equal(t, []string{taskname.MembershipExpire, taskname.PerformanceRollup, taskname.BookingSearchSync}, types)

	var rollup performance.RollupPayload
	require.NoError(t, json.Unmarshal(enq.tasks[1].Payload(), &rollup))
	require.Equal(t, 10, rollup.Month)
	require.Equal(t, 2026, rollup.Year)

	var jobs []Job
	require.NoError(t, svc.db.Find(&jobs).Error)
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		require.Equal(t, JobEnqueued, j.Status)
	}
}

func TestRunDailyRecordsFailures(t *testing.T) {
	enq := &fakeEnqueuer{fail: map[string]bool{taskname.PerformanceRollup: true}}
	svc := newTestService(t, enq)

	err := svc.RunDaily(context.Background(), time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.Len(t, enq.tasks, 2)

	var failed Job
	require.NoError(t, svc.db.Where("status = ?", JobFailed).First(&failed).Error)
	require.Equal(t, taskname.PerformanceRollup, failed.TaskType)
	require.Equal(t, "redis down", failed.ErrorMsg)
}

func TestNextRunTime(t *testing.T) {
	loc := time.UTC
	require.Equal(t, time.Date(2026, 10, 16, 1, 0, 0, 0, loc), nextRunTime(time.Date(2026, 10, 16, 0, 30, 0, 0, loc), 1, 0))
	require.Equal(t, time.Date(2026, 10, 17, 1, 0, 0, 0, loc), nextRunTime(time.Date(2026, 10, 16, 1, 0, 0, 0, loc), 1, 0))
	require.Equal(t, time.Date(2026, 11, 1, 1, 0, 0, 0, loc), nextRunTime(time.Date(2026, 10, 31, 23, 0, 0, 0, loc), 1, 0))
}
