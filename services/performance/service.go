package performance

import (
	"context"
	"fmt"
	"time"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/pkg/util"
	"asenso-booking/services/booking"
	"asenso-booking/services/rating"
	"asenso-booking/services/violation"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db        *gorm.DB
	snapshots repository.Repository[Snapshot]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		snapshots: repository.ProvideStore[Snapshot](p.DB),
	}
}

func monthOf(date string) (year, month int, err error) {
	t, err := util.ParseDate(date)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), int(t.Month()), nil
}

// bump makes sure the month row exists and applies the column increments.
func (s *Service) bump(ctx context.Context, tx *gorm.DB, workerID int64, date string, incr map[string]int64) (*Snapshot, error) {
	year, month, err := monthOf(date)
	if err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Snapshot{WorkerID: workerID, Year: year, Month: month, UpdatedAt: time.Now().UTC()}).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	for col, n := range incr {
		updates[col] = gorm.Expr(col+" + ?", n)
	}
	if err := tx.WithContext(ctx).
		Model(&Snapshot{}).
		Where("worker_id = ? AND year = ? AND month = ?", workerID, year, month).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	snap, err := s.snapshots.WithTrx(tx).FindOne(ctx, &Snapshot{WorkerID: workerID, Year: year, Month: month})
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot %d %d-%02d missing after upsert", workerID, year, month)
	}
	return snap, nil
}

func (s *Service) RecordCompletionTx(ctx context.Context, tx *gorm.DB, workerID int64, serviceDate string) error {
	_, err := s.bump(ctx, tx, workerID, serviceDate, map[string]int64{"completed_count": 1})
	return err
}

func (s *Service) RecordRatingTx(ctx context.Context, tx *gorm.DB, r *rating.Rating) error {
	snap, err := s.bump(ctx, tx, r.WorkerID, r.ServiceDate, map[string]int64{
		"rating_count": 1,
		"rating_sum":   int64(r.Stars),
	})
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).
		Model(&Snapshot{}).
		Where("worker_id = ? AND year = ? AND month = ?", snap.WorkerID, snap.Year, snap.Month).
		Update("average_rating", snap.average()).Error
}

// RecordViolationTx counts a new violation, or takes one back out when v has
// been waived.
func (s *Service) RecordViolationTx(ctx context.Context, tx *gorm.DB, v *violation.Violation) error {
	sign := int64(1)
	if v.Status == violation.StatusWaived {
		sign = -1
	}

	col := "minor_violations"
	if v.Severity == violation.SeverityMajor {
		col = "major_violations"
	}

	_, err := s.bump(ctx, tx, v.WorkerID, v.Date, map[string]int64{
		col:               sign,
		"points_deducted": sign * -v.Points,
	})
	return err
}

// GetSnapshot returns the stored month, or an empty one when the worker had
// no activity.
func (s *Service) GetSnapshot(ctx context.Context, workerID int64, month, year int) (*Snapshot, error) {
	if _, _, _, err := util.MonthRange(month, year); err != nil {
		return nil, errutil.ValidationFailed(err.Error(), nil)
	}

	snap, err := s.snapshots.FindOne(ctx, &Snapshot{WorkerID: workerID, Year: year, Month: month})
	if err != nil {
		return nil, errutil.Internal("failed to query performance snapshot", err)
	}
	if snap == nil {
		snap = &Snapshot{WorkerID: workerID, Year: year, Month: month}
	}
	return snap, nil
}

// Rollup recomputes the month from bookings, ratings and violations and
// overwrites the stored snapshot.
func (s *Service) Rollup(ctx context.Context, workerID int64, month, year int) (*Snapshot, error) {
	first, last, _, err := util.MonthRange(month, year)
	if err != nil {
		return nil, errutil.ValidationFailed(err.Error(), nil)
	}
	from, to := util.FormatDate(first), util.FormatDate(last)

	snap := &Snapshot{WorkerID: workerID, Year: year, Month: month}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&booking.Booking{}).
			Where("worker_id = ? AND status = ? AND service_date BETWEEN ? AND ?", workerID, booking.StatusCompleted, from, to).
			Count(&snap.CompletedCount).Error; err != nil {
			return err
		}

		var ratings struct {
			Count int64
			Sum   int64
		}
		if err := tx.Model(&rating.Rating{}).
			Select("COUNT(*) AS count, COALESCE(SUM(stars), 0) AS sum").
			Where("worker_id = ? AND service_date BETWEEN ? AND ?", workerID, from, to).
			Scan(&ratings).Error; err != nil {
			return err
		}
		snap.RatingCount, snap.RatingSum = ratings.Count, ratings.Sum
		snap.AverageRating = snap.average()

		var rows []struct {
			Severity violation.Severity
			Count    int64
			Points   int64
		}
		if err := tx.Model(&violation.Violation{}).
			Select("severity, COUNT(*) AS count, COALESCE(SUM(points), 0) AS points").
			Where("worker_id = ? AND status <> ? AND date BETWEEN ? AND ?", workerID, violation.StatusWaived, from, to).
			Group("severity").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			if r.Severity == violation.SeverityMajor {
				snap.MajorViolations += r.Count
			} else {
				snap.MinorViolations += r.Count
			}
			snap.PointsDeducted -= r.Points
		}

		snap.UpdatedAt = time.Now().UTC()
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "worker_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed_count", "rating_count", "rating_sum", "average_rating",
				"major_violations", "minor_violations", "points_deducted", "updated_at",
			}),
		}).Create(snap).Error
	})
	if err != nil {
		logger.FromContext(ctx).Error("performance rollup failed", zap.Int64("worker_id", workerID), zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, errutil.Internal("failed to roll up performance", err)
	}

	return snap, nil
}

// ActiveWorkers lists workers with any completion, rating or violation in
// the month.
func (s *Service) ActiveWorkers(ctx context.Context, month, year int) ([]int64, error) {
	first, last, _, err := util.MonthRange(month, year)
	if err != nil {
		return nil, errutil.ValidationFailed(err.Error(), nil)
	}
	from, to := util.FormatDate(first), util.FormatDate(last)

	seen := map[int64]struct{}{}
	collect := func(q *gorm.DB) error {
		var ids []int64
		if err := q.Distinct().Pluck("worker_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		return nil
	}

	db := s.db.WithContext(ctx)
	if err := collect(db.Model(&booking.Booking{}).Where("status = ? AND service_date BETWEEN ? AND ?", booking.StatusCompleted, from, to)); err != nil {
		return nil, errutil.Internal("failed to list active workers", err)
	}
	if err := collect(db.Model(&rating.Rating{}).Where("service_date BETWEEN ? AND ?", from, to)); err != nil {
		return nil, errutil.Internal("failed to list active workers", err)
	}
	if err := collect(db.Model(&violation.Violation{}).Where("date BETWEEN ? AND ?", from, to)); err != nil {
		return nil, errutil.Internal("failed to list active workers", err)
	}

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}
