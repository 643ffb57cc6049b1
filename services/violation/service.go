package violation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/pkg/sequence"
	"asenso-booking/pkg/util"
	"asenso-booking/services/booking"
	"asenso-booking/services/loyalty"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger interface {
	PostTx(ctx context.Context, tx *gorm.DB, e loyalty.Entry) (*loyalty.Transaction, error)
}

// Recorder sees every violation insert and waiver inside the writing
// transaction.
type Recorder interface {
	RecordViolationTx(ctx context.Context, tx *gorm.DB, v *Violation) error
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	ledger   Ledger
	recorder Recorder

	types      repository.Repository[Type]
	violations repository.Repository[Violation]
	bookings   repository.Repository[booking.Booking]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Ledger   Ledger
	Recorder Recorder
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:         p.DB,
		node:       p.Node,
		seq:        p.Seq,
		ledger:     p.Ledger,
		recorder:   p.Recorder,
		types:      repository.ProvideStore[Type](p.DB),
		violations: repository.ProvideStore[Violation](p.DB),
		bookings:   repository.ProvideStore[booking.Booking](p.DB),
	}
}

func (s *Service) UpsertType(ctx context.Context, t *Type) (*Type, error) {
	t.Code = strings.ToUpper(strings.TrimSpace(t.Code))
	t.Severity = Severity(strings.ToUpper(string(t.Severity)))

	var details []errutil.Detail
	if t.Code == "" {
		details = append(details, errutil.Detail{Field: "code", Message: "is required"})
	}
	if !t.Severity.Valid() {
		details = append(details, errutil.Detail{Field: "severity", Message: "must be MAJOR or MINOR"})
	}
	if t.Points >= 0 {
		details = append(details, errutil.Detail{Field: "points", Message: "must be negative"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid violation type", nil, errutil.WithDetails(details...))
	}

	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "severity", "points", "updated_at"}),
	}).Create(t).Error; err != nil {
		return nil, errutil.Internal("failed to save violation type", err)
	}
	return s.types.FindOne(ctx, &Type{Code: t.Code})
}

func (s *Service) ListTypes(ctx context.Context) ([]*Type, error) {
	out, err := s.types.Find(ctx, nil, option.WithSortBy(option.QuerySortBy{SortBy: "code", OrderBy: "asc"}))
	if err != nil {
		return nil, errutil.Internal("failed to list violation types", err)
	}
	return out, nil
}

// Create records a violation and debits the configured points in the same
// transaction. The debit does not wait for any booking to complete.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Violation, error) {
	log := logger.FromContext(ctx)

	in.TypeCode = strings.ToUpper(strings.TrimSpace(in.TypeCode))
	if in.WorkerID == 0 || in.TypeCode == "" {
		return nil, errutil.ValidationFailed("worker_id and type_code are required", nil)
	}
	if in.Date != "" {
		if _, err := util.ParseDate(in.Date); err != nil {
			return nil, errutil.ValidationFailed(err.Error(), nil)
		}
	}

	typ, err := s.types.FindOne(ctx, &Type{Code: in.TypeCode})
	if err != nil {
		return nil, errutil.Internal("failed to query violation type", err)
	}
	if typ == nil {
		return nil, errutil.NotFound("violation type "+in.TypeCode+" not found", nil)
	}

	date := in.Date
	if in.BookingID != nil {
		b, err := s.bookings.FindOne(ctx, &booking.Booking{ID: *in.BookingID})
		if err != nil {
			return nil, errutil.Internal("failed to query booking", err)
		}
		if b == nil {
			return nil, errutil.NotFound("booking not found", nil)
		}
		if b.WorkerID != in.WorkerID {
			return nil, errutil.ValidationFailed("booking is assigned to another worker", nil)
		}
		if date == "" {
			date = b.ServiceDate
		}
	}
	if date == "" {
		date = util.FormatDate(time.Now().UTC())
	}

	code, err := s.seq.NextViolationCode(ctx)
	if err != nil {
		log.Error("failed to generate violation code", zap.Error(err))
		return nil, errutil.Internal("failed to generate violation code", err)
	}

	v := &Violation{
		ID:        s.node.Generate().Int64(),
		Code:      code,
		WorkerID:  in.WorkerID,
		BookingID: in.BookingID,
		TypeCode:  typ.Code,
		Severity:  typ.Severity,
		Points:    typ.Points,
		Date:      date,
		Notes:     in.Notes,
		Status:    StatusOpen,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.violations.WithTrx(tx).Create(ctx, v); err != nil {
			return errutil.Internal("failed to create violation", err)
		}

		if _, err := s.ledger.PostTx(ctx, tx, loyalty.Entry{
			WorkerID:  v.WorkerID,
			BookingID: v.BookingID,
			Points:    v.Points,
			Type:      loyalty.Violation,
			Notes:     fmt.Sprintf("%s %s", v.Code, typ.Name),
			Reference: "violation:" + strconv.FormatInt(v.ID, 10),
		}); err != nil {
			return err
		}

		if err := s.recorder.RecordViolationTx(ctx, tx, v); err != nil {
			return errutil.Internal("failed to record violation", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create violation", zap.Int64("worker_id", in.WorkerID), zap.Error(err))
		return nil, err
	}

	log.Info("violation created", zap.String("code", v.Code), zap.Int64("worker_id", v.WorkerID), zap.Int64("points", v.Points))
	return v, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Violation, error) {
	v, err := s.violations.FindOne(ctx, &Violation{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query violation", err)
	}
	if v == nil {
		return nil, errutil.NotFound("violation not found", nil)
	}
	return v, nil
}

// Resolve closes an open violation. WAIVED gives the deducted points back as
// an ADJUSTMENT.
func (s *Service) Resolve(ctx context.Context, id int64, resolution Status, notes string) (*Violation, error) {
	resolution = Status(strings.ToUpper(string(resolution)))
	if resolution != StatusResolved && resolution != StatusWaived {
		return nil, errutil.ValidationFailed("resolution must be RESOLVED or WAIVED", nil)
	}

	var out *Violation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := s.violations.WithTrx(tx).FindOne(ctx, &Violation{ID: id}, option.WithLockingUpdate())
		if err != nil {
			return errutil.Internal("failed to query violation", err)
		}
		if v == nil {
			return errutil.NotFound("violation not found", nil)
		}
		if v.Status != StatusOpen {
			return errutil.Conflict("violation "+v.Code+" is already "+strings.ToLower(string(v.Status)), nil)
		}

		now := time.Now().UTC()
		res := tx.WithContext(ctx).
			Model(&Violation{}).
			Where("id = ? AND status = ?", v.ID, StatusOpen).
			Updates(map[string]any{"status": resolution, "resolution": notes, "resolved_at": now, "updated_at": now})
		if res.Error != nil {
			return errutil.Internal("failed to resolve violation", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("violation "+v.Code+" was resolved concurrently", nil)
		}
		v.Status, v.Resolution, v.ResolvedAt, v.UpdatedAt = resolution, notes, &now, now

		if resolution == StatusWaived {
			if _, err := s.ledger.PostTx(ctx, tx, loyalty.Entry{
				WorkerID:  v.WorkerID,
				BookingID: v.BookingID,
				Points:    -v.Points,
				Type:      loyalty.Adjustment,
				Notes:     "waived " + v.Code,
				Reference: "violation:" + strconv.FormatInt(v.ID, 10) + ":waive",
			}); err != nil {
				return err
			}
			if err := s.recorder.RecordViolationTx(ctx, tx, v); err != nil {
				return errutil.Internal("failed to record violation", err)
			}
		}

		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, workerID int64, status Status, p pagination.Pagination) ([]*Violation, *pagination.PageInfo, error) {
	rows, err := s.violations.Find(ctx, &Violation{WorkerID: workerID, Status: status}, option.ApplyPagination(p))
	if err != nil {
		return nil, nil, errutil.Internal("failed to list violations", err)
	}

	rows, info := pagination.Trim(rows, p, func(v *Violation) int64 { return v.ID })
	return rows, info, nil
}
