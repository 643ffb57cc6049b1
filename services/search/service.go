package search

import (
	"context"
	"fmt"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"
	"asenso-booking/services/booking"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Projection interface {
	SearchProjection(ctx context.Context, p pagination.Pagination) ([]booking.SearchDocument, *pagination.PageInfo, error)
}

type SyncPayload struct {
	Cursor string `json:"cursor,omitempty"`
}

type Service struct {
	projection Projection
	indexer    Indexer
	batchSize  int
}

type ServiceParams struct {
	fx.In
	Bookings *booking.Service
	Indexer  Indexer
	Config   *config.Config
}

func NewService(p ServiceParams) *Service {
	return newService(p.Bookings, p.Indexer, p.Config.Search.BatchSize)
}

func newService(projection Projection, indexer Indexer, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Service{projection: projection, indexer: indexer, batchSize: batchSize}
}

// Sync pushes every booking after cursor to the indexer, one page at a time,
// and returns the cursor of the last indexed page.
func (s *Service) Sync(ctx context.Context, cursor string) (string, int, error) {
	total := 0
	for {
		docs, info, err := s.projection.SearchProjection(ctx, pagination.Pagination{Cursor: cursor, Limit: s.batchSize})
		if err != nil {
			return cursor, total, err
		}
		if len(docs) == 0 {
			return cursor, total, nil
		}

		if err := s.indexer.Index(ctx, docs); err != nil {
			return cursor, total, fmt.Errorf("index page after %q: %w", cursor, err)
		}
		total += len(docs)
		cursor = info.NextCursor

		if !info.HasMore {
			return cursor, total, nil
		}
	}
}

func EnqueueSync(ctx context.Context, enq task.Enqueuer, p SyncPayload) error {
	t, err := task.NewJSONTask(taskname.BookingSearchSync, p,
		asynq.Queue(task.QueueLow),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		return err
	}
	_, err = enq.Enqueue(ctx, t)
	return err
}

func (s *Service) HandleSyncTask(ctx context.Context, t *asynq.Task) error {
	var p SyncPayload
	if err := task.DecodePayload(t, &p); err != nil {
		zap.L().Error("invalid search sync payload", zap.Error(err))
		return err
	}

	cursor, n, err := s.Sync(ctx, p.Cursor)
	if err != nil {
		zap.L().Error("search sync failed", zap.String("cursor", cursor), zap.Int("indexed", n), zap.Error(err))
		return err
	}

	zap.L().Info("search sync finished", zap.Int("indexed", n))
	return nil
}
