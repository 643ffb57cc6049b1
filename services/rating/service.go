package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/services/booking"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BookingFinder interface {
	FindByCodeTx(ctx context.Context, db *gorm.DB, code string, opts ...option.QueryOption) (*booking.Booking, error)
}

type Recorder interface {
	RecordRatingTx(ctx context.Context, tx *gorm.DB, r *Rating) error
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	bookings BookingFinder
	recorder Recorder
	ratings  repository.Repository[Rating]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Bookings *booking.Service
	Recorder Recorder
}

func NewService(p ServiceParams) *Service {
	return newService(p.DB, p.Node, p.Bookings, p.Recorder)
}

func newService(db *gorm.DB, node *snowflake.Node, bookings BookingFinder, recorder Recorder) *Service {
	return &Service{
		db:       db,
		node:     node,
		bookings: bookings,
		recorder: recorder,
		ratings:  repository.ProvideStore[Rating](db),
	}
}

// SubmitRating stores the single rating a completed booking may receive.
func (s *Service) SubmitRating(ctx context.Context, bookingCode string, stars int, feedback string) (*Rating, error) {
	if stars < MinStars || stars > MaxStars {
		return nil, errutil.ValidationFailed(fmt.Sprintf("stars must be between %d and %d", MinStars, MaxStars), nil,
			errutil.WithDetails(errutil.Detail{Field: "stars", Message: "out of range"}))
	}

	var out *Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.FindByCodeTx(ctx, tx, bookingCode, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if b.Status != booking.StatusCompleted {
			return errutil.ValidationFailed("only completed bookings can be rated", nil)
		}
		if b.CustomerID == 0 {
			return errutil.ValidationFailed("booking "+b.Code+" has no customer", nil)
		}

		exist, err := s.ratings.WithTrx(tx).FindOne(ctx, &Rating{BookingID: b.ID})
		if err != nil {
			return errutil.Internal("failed to query rating", err)
		}
		if exist != nil {
			return errutil.Conflict("booking "+b.Code+" is already rated", nil)
		}

		r := &Rating{
			ID:          s.node.Generate().Int64(),
			BookingID:   b.ID,
			WorkerID:    b.WorkerID,
			CustomerID:  b.CustomerID,
			Stars:       stars,
			Feedback:    strings.TrimSpace(feedback),
			ServiceDate: b.ServiceDate,
		}
		if err := s.ratings.WithTrx(tx).Create(ctx, r); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errutil.Conflict("booking "+b.Code+" is already rated", nil)
			}
			return errutil.Internal("failed to create rating", err)
		}
		if err := s.recorder.RecordRatingTx(ctx, tx, r); err != nil {
			return errutil.Internal("failed to record rating", err)
		}

		out = r
		return nil
	})
	if err != nil {
		if errutil.Code(err) == errutil.StatusInternal {
			logger.FromContext(ctx).Error("failed to submit rating", zap.String("booking_code", bookingCode), zap.Error(err))
		}
		return nil, err
	}

	return out, nil
}

func (s *Service) ForBooking(ctx context.Context, bookingCode string) (*Rating, error) {
	b, err := s.bookings.FindByCodeTx(ctx, s.db, bookingCode)
	if err != nil {
		return nil, err
	}

	r, err := s.ratings.FindOne(ctx, &Rating{BookingID: b.ID})
	if err != nil {
		return nil, errutil.Internal("failed to query rating", err)
	}
	if r == nil {
		return nil, errutil.NotFound("booking "+b.Code+" has no rating", nil)
	}
	return r, nil
}
