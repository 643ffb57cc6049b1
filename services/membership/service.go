package membership

import (
	"context"
	"strings"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/pkg/util"
	"asenso-booking/services/catalog"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Validator answers whether a customer may book a Flexi visit.
type Validator interface {
	ActiveMembership(ctx context.Context, customerID int64, location, tier, date string) (*Membership, error)
}

type SkuFinder interface {
	MembershipSku(ctx context.Context, code string) (*catalog.MembershipSku, error)
}

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	skus SkuFinder

	memberships repository.Repository[Membership]
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Catalog *catalog.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		skus:        p.Catalog,
		memberships: repository.ProvideStore[Membership](p.DB),
	}
}

// ActiveMembership returns the first ACTIVE membership of customerID whose
// location matches exactly, whose tier scope is empty or equal to tier and
// whose range contains date. Anything else is a validation failure.
func (s *Service) ActiveMembership(ctx context.Context, customerID int64, location, tier, date string) (*Membership, error) {
	if customerID == 0 {
		return nil, errutil.ValidationFailed("customer_id is required", nil)
	}
	if _, err := util.ParseDate(date); err != nil {
		return nil, errutil.ValidationFailed("invalid date", err)
	}

	location = strings.ToUpper(strings.TrimSpace(location))
	tier = strings.ToUpper(strings.TrimSpace(tier))

	found, err := s.memberships.Find(ctx, &Membership{
		CustomerID: customerID,
		Location:   location,
		Status:     StatusActive,
	}, option.ApplyOperator(
		option.Condition{Field: "start_date", Operator: option.LTE, Value: date},
		option.Condition{Field: "end_date", Operator: option.GTE, Value: date},
	), func(db *gorm.DB) *gorm.DB {
		return db.Where("(tier IS NULL OR tier = ?)", tier)
	}, option.WithSortBy(option.QuerySortBy{SortBy: "end_date", OrderBy: "desc"}))
	if err != nil {
		logger.FromContext(ctx).Error("failed to query memberships", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, errutil.Internal("failed to query memberships", err)
	}

	for _, m := range found {
		if m.Covers(location, tier, date) {
			return m, nil
		}
	}

	return nil, errutil.ValidationFailed("no active membership", nil)
}

// Purchase starts a membership from a catalog sku on startDate.
func (s *Service) Purchase(ctx context.Context, customerID int64, skuCode, startDate string) (*Membership, error) {
	if customerID == 0 {
		return nil, errutil.ValidationFailed("customer_id is required", nil)
	}
	start, err := util.ParseDate(startDate)
	if err != nil {
		return nil, errutil.ValidationFailed("invalid start_date", err)
	}

	sku, err := s.skus.MembershipSku(ctx, skuCode)
	if err != nil {
		return nil, err
	}

	m := &Membership{
		ID:              s.node.Generate().Int64(),
		CustomerID:      customerID,
		MembershipSkuID: sku.ID,
		Location:        sku.Location,
		Tier:            sku.Tier,
		StartDate:       util.FormatDate(start),
		EndDate:         util.FormatDate(start.AddDate(0, 0, sku.TermDays-1)),
		Status:          StatusActive,
	}

	if err := s.memberships.Create(ctx, m); err != nil {
		logger.FromContext(ctx).Error("failed to create membership", zap.Error(err))
		return nil, errutil.Internal("failed to create membership", err)
	}

	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Membership, error) {
	m, err := s.memberships.FindOne(ctx, &Membership{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query membership", err)
	}
	if m == nil {
		return nil, errutil.NotFound("membership not found", nil)
	}
	return m, nil
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Membership, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.memberships.WithTrx(tx).FindOne(ctx, &Membership{ID: id}, option.WithLockingUpdate())
		if err != nil {
			return errutil.Internal("failed to query membership", err)
		}
		if m == nil {
			return errutil.NotFound("membership not found", nil)
		}
		if m.Status != StatusActive {
			return errutil.Conflict("membership is not active", nil)
		}

		if err := s.memberships.WithTrx(tx).Update(ctx, id, map[string]any{"status": StatusCancelled}); err != nil {
			return errutil.Internal("failed to cancel membership", err)
		}
		return nil
	})
	if err != nil {
		if errutil.Code(err) == errutil.StatusInternal {
			logger.FromContext(ctx).Error("failed to cancel membership", zap.Int64("membership_id", id), zap.Error(err))
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// ExpireLapsed moves ACTIVE memberships that ended before asOf to EXPIRED.
func (s *Service) ExpireLapsed(ctx context.Context, asOf string) (int64, error) {
	if _, err := util.ParseDate(asOf); err != nil {
		return 0, errutil.ValidationFailed("invalid date", err)
	}

	res := s.db.WithContext(ctx).Model(&Membership{}).
		Where("status = ? AND end_date < ?", StatusActive, asOf).
		Update("status", StatusExpired)
	if res.Error != nil {
		return 0, errutil.Internal("failed to expire memberships", res.Error)
	}
	return res.RowsAffected, nil
}
