package membership

import (
	"context"
	"time"

	"asenso-booking/pkg/task"
	"asenso-booking/pkg/util"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type ExpirePayload struct {
	AsOf string `json:"as_of"`
}

// HandleExpireTask expires memberships that ended before the payload date,
// today when empty.
func (s *Service) HandleExpireTask(ctx context.Context, t *asynq.Task) error {
	var p ExpirePayload
	if err := task.DecodePayload(t, &p); err != nil {
		zap.L().Error("invalid membership expire payload", zap.Error(err))
		return err
	}
	if p.AsOf == "" {
		p.AsOf = util.FormatDate(time.Now())
	}

	n, err := s.ExpireLapsed(ctx, p.AsOf)
	if err != nil {
		zap.L().Error("failed to expire memberships", zap.String("as_of", p.AsOf), zap.Error(err))
		return err
	}

	zap.L().Info("memberships expired", zap.String("as_of", p.AsOf), zap.Int64("count", n))
	return nil
}
