package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/pkg/util"
	"asenso-booking/services/booking"
	"asenso-booking/services/catalog"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	slots repository.Repository[Slot]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		slots: repository.ProvideStore[Slot](p.DB),
	}
}

func (in *SetInput) validate() error {
	in.Status = Status(strings.ToUpper(strings.TrimSpace(string(in.Status))))
	in.TimeCommitment = catalog.Duration(strings.ToUpper(strings.TrimSpace(string(in.TimeCommitment))))

	var details []errutil.Detail
	if in.WorkerID == 0 {
		details = append(details, errutil.Detail{Field: "worker_id", Message: "is required"})
	}
	if _, err := util.ParseDate(in.Date); err != nil {
		details = append(details, errutil.Detail{Field: "date", Message: err.Error()})
	}
	if !in.Status.Valid() {
		details = append(details, errutil.Detail{Field: "status", Message: "must be AVAILABLE or UNAVAILABLE"})
	}
	if in.Status == StatusAvailable && in.TimeCommitment == "" {
		details = append(details, errutil.Detail{Field: "time_commitment", Message: "is required when available"})
	}
	if in.TimeCommitment != "" && !in.TimeCommitment.Valid() {
		details = append(details, errutil.Detail{Field: "time_commitment", Message: "must be HALF_DAY or WHOLE_DAY"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid availability", nil, errutil.WithDetails(details...))
	}
	return nil
}

// lockSlot makes sure the (worker, date) row exists, as UNSET when new, and
// locks it for the rest of tx. Availability edits and booking creation for
// the same day queue on this row.
func (s *Service) lockSlot(ctx context.Context, tx *gorm.DB, workerID int64, date string) (*Slot, error) {
	now := time.Now().UTC()
	placeholder := &Slot{
		ID:        s.node.Generate().Int64(),
		WorkerID:  workerID,
		Date:      date,
		Status:    StatusUnset,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(placeholder).Error; err != nil {
		return nil, err
	}

	slot, err := s.slots.WithTrx(tx).FindOne(ctx, &Slot{WorkerID: workerID, Date: date}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %d@%s vanished after upsert", workerID, date)
	}
	return slot, nil
}

// LockDayTx locks the worker's slot for date inside tx and reports whether
// the worker marked the day UNAVAILABLE. Callers insert their booking in the
// same tx so a concurrent SetAvailability sees it.
func (s *Service) LockDayTx(ctx context.Context, tx *gorm.DB, workerID int64, date string) (bool, error) {
	slot, err := s.lockSlot(ctx, tx, workerID, date)
	if err != nil {
		return false, fmt.Errorf("lock availability slot: %w", err)
	}
	return slot.Status == StatusUnavailable, nil
}

// SetAvailability writes the slot for (worker, date). Writes to the same
// slot are serialized by the row lock taken before the booking check.
func (s *Service) SetAvailability(ctx context.Context, in SetInput) (*Slot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *Slot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTrx(tx)

		current, err := s.lockSlot(ctx, tx, in.WorkerID, in.Date)
		if err != nil {
			return errutil.Internal("failed to lock availability", err)
		}

		if in.Status == StatusUnavailable {
			busy, err := booking.HasActiveBooking(ctx, tx, in.WorkerID, in.Date)
			if err != nil {
				return errutil.Internal("failed to check bookings", err)
			}
			if busy {
				return errutil.Conflict("cannot edit availability for a date with an active booking", nil)
			}
		}

		if err := slots.Update(ctx, current.ID, map[string]any{
			"status":          in.Status,
			"time_commitment": in.TimeCommitment,
			"reason":          in.Reason,
			"updated_at":      time.Now().UTC(),
		}); err != nil {
			return errutil.Internal("failed to save availability", err)
		}

		out, err = slots.FindOne(ctx, &Slot{WorkerID: in.WorkerID, Date: in.Date})
		if err != nil {
			return errutil.Internal("failed to query availability", err)
		}
		return nil
	})
	if err != nil {
		if errutil.Code(err) == errutil.StatusInternal {
			logger.FromContext(ctx).Error("failed to set availability", zap.Int64("worker_id", in.WorkerID), zap.String("date", in.Date), zap.Error(err))
		}
		return nil, err
	}

	return out, nil
}

// GetAvailability returns one slot per day of the month. Days without a
// stored row come back as UNSET.
func (s *Service) GetAvailability(ctx context.Context, workerID int64, month, year int) ([]Slot, error) {
	first, last, days, err := util.MonthRange(month, year)
	if err != nil {
		return nil, errutil.ValidationFailed(err.Error(), nil)
	}

	rows, err := s.slots.Find(ctx, &Slot{WorkerID: workerID}, option.ApplyOperator(
		option.Condition{Field: "date", Operator: option.GTE, Value: util.FormatDate(first)},
		option.Condition{Field: "date", Operator: option.LTE, Value: util.FormatDate(last)},
	))
	if err != nil {
		return nil, errutil.Internal("failed to list availability", err)
	}

	byDate := make(map[string]*Slot, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]Slot, 0, days)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := util.FormatDate(d)
		if r, ok := byDate[date]; ok {
			out = append(out, *r)
			continue
		}
		out = append(out, Slot{WorkerID: workerID, Date: date, Status: StatusUnset})
	}
	return out, nil
}
