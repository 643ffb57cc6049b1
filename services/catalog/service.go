package catalog

import (
	"context"
	"fmt"
	"strings"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the read side of the rate tables plus the admin upserts that
// keep its cache honest.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	skus          repository.Repository[ServiceSku]
	rates         repository.Repository[FlexiRateCard]
	membershipSku repository.Repository[MembershipSku]

	skuCache  *readCache[SkuKey, *ServiceSku]
	rateCache *readCache[RateKey, *FlexiRateCard]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	ttl := p.Config.Pricing.CatalogCacheTTL
	return &Service{
		db:            p.DB,
		node:          p.Node,
		skus:          repository.ProvideStore[ServiceSku](p.DB),
		rates:         repository.ProvideStore[FlexiRateCard](p.DB),
		membershipSku: repository.ProvideStore[MembershipSku](p.DB),
		skuCache:      newReadCache[SkuKey, *ServiceSku]("service_sku", ttl),
		rateCache:     newReadCache[RateKey, *FlexiRateCard]("flexi_rate", ttl),
	}
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (k SkuKey) normalized() SkuKey {
	return SkuKey{
		Location:    normalize(k.Location),
		Tier:        normalize(k.Tier),
		Duration:    Duration(normalize(string(k.Duration))),
		BookingType: BookingType(normalize(string(k.BookingType))),
	}
}

func (k RateKey) normalized() RateKey {
	return RateKey{
		Location: normalize(k.Location),
		Tier:     normalize(k.Tier),
		Duration: Duration(normalize(string(k.Duration))),
	}
}

// ServiceSku finds the flat price for (location, tier, duration, type).
func (s *Service) ServiceSku(ctx context.Context, key SkuKey) (*ServiceSku, error) {
	key = key.normalized()

	return s.skuCache.load(key, func() (*ServiceSku, error) {
		sku, err := s.skus.FindOne(ctx, &ServiceSku{
			Location:    key.Location,
			Tier:        key.Tier,
			Duration:    key.Duration,
			BookingType: key.BookingType,
		})
		if err != nil {
			logger.FromContext(ctx).Error("failed to query service sku", zap.Error(err))
			return nil, errutil.Internal("failed to query service sku", err)
		}
		if sku == nil {
			return nil, errutil.NotFound(fmt.Sprintf("no service sku for %s/%s/%s/%s", key.Location, key.Tier, key.Duration, key.BookingType), nil)
		}
		return sku, nil
	})
}

// FlexiRateCard finds the per-visit membership rate for (location, tier, duration).
func (s *Service) FlexiRateCard(ctx context.Context, key RateKey) (*FlexiRateCard, error) {
	key = key.normalized()

	return s.rateCache.load(key, func() (*FlexiRateCard, error) {
		card, err := s.rates.FindOne(ctx, &FlexiRateCard{
			Location: key.Location,
			Tier:     key.Tier,
			Duration: key.Duration,
		})
		if err != nil {
			logger.FromContext(ctx).Error("failed to query flexi rate card", zap.Error(err))
			return nil, errutil.Internal("failed to query flexi rate card", err)
		}
		if card == nil {
			return nil, errutil.NotFound(fmt.Sprintf("no flexi rate card for %s/%s/%s", key.Location, key.Tier, key.Duration), nil)
		}
		return card, nil
	})
}

func (s *Service) MembershipSku(ctx context.Context, code string) (*MembershipSku, error) {
	sku, err := s.membershipSku.FindOne(ctx, &MembershipSku{Code: normalize(code)})
	if err != nil {
		return nil, errutil.Internal("failed to query membership sku", err)
	}
	if sku == nil {
		return nil, errutil.NotFound("membership sku not found", nil)
	}
	return sku, nil
}

func (s *Service) ListServiceSkus(ctx context.Context, location string) ([]*ServiceSku, error) {
	query := &ServiceSku{Location: normalize(location)}
	skus, err := s.skus.Find(ctx, query)
	if err != nil {
		return nil, errutil.Internal("failed to list service skus", err)
	}
	return skus, nil
}

// UpsertServiceSku replaces the price for the sku's key.
func (s *Service) UpsertServiceSku(ctx context.Context, sku *ServiceSku) (*ServiceSku, error) {
	key := SkuKey{Location: sku.Location, Tier: sku.Tier, Duration: sku.Duration, BookingType: sku.BookingType}.normalized()
	if key.Location == "" || key.Tier == "" || !key.Duration.Valid() {
		return nil, errutil.ValidationFailed("location, tier and duration are required", nil)
	}
	if key.BookingType != BookingTypeTrial && key.BookingType != BookingTypeOneTime {
		return nil, errutil.ValidationFailed("service skus price TRIAL or ONE_TIME bookings", nil)
	}
	if sku.Price.IsNegative() {
		return nil, errutil.ValidationFailed("price must not be negative", nil)
	}

	row := &ServiceSku{
		ID:          s.node.Generate().Int64(),
		Location:    key.Location,
		Tier:        key.Tier,
		Duration:    key.Duration,
		BookingType: key.BookingType,
		Price:       sku.Price,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location"}, {Name: "tier"}, {Name: "duration"}, {Name: "booking_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(row).Error; err != nil {
		logger.FromContext(ctx).Error("failed to upsert service sku", zap.Error(err))
		return nil, errutil.Internal("failed to upsert service sku", err)
	}
	s.skuCache.invalidate(key)

	return s.skus.FindOne(ctx, &ServiceSku{Location: key.Location, Tier: key.Tier, Duration: key.Duration, BookingType: key.BookingType})
}

// UpsertFlexiRateCard replaces base rate and surge for the card's key.
func (s *Service) UpsertFlexiRateCard(ctx context.Context, card *FlexiRateCard) (*FlexiRateCard, error) {
	key := RateKey{Location: card.Location, Tier: card.Tier, Duration: card.Duration}.normalized()
	if key.Location == "" || key.Tier == "" || !key.Duration.Valid() {
		return nil, errutil.ValidationFailed("location, tier and duration are required", nil)
	}
	if card.BaseRate.IsNegative() || card.Surge.IsNegative() {
		return nil, errutil.ValidationFailed("rates must not be negative", nil)
	}

	row := &FlexiRateCard{
		ID:       s.node.Generate().Int64(),
		Location: key.Location,
		Tier:     key.Tier,
		Duration: key.Duration,
		BaseRate: card.BaseRate,
		Surge:    card.Surge,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location"}, {Name: "tier"}, {Name: "duration"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_rate", "surge", "updated_at"}),
	}).Create(row).Error; err != nil {
		logger.FromContext(ctx).Error("failed to upsert flexi rate card", zap.Error(err))
		return nil, errutil.Internal("failed to upsert flexi rate card", err)
	}
	s.rateCache.invalidate(key)

	return s.rates.FindOne(ctx, &FlexiRateCard{Location: key.Location, Tier: key.Tier, Duration: key.Duration})
}

func (s *Service) CreateMembershipSku(ctx context.Context, sku *MembershipSku) (*MembershipSku, error) {
	if sku.Code == "" || sku.Location == "" {
		return nil, errutil.ValidationFailed("code and location are required", nil)
	}
	if sku.TermDays <= 0 {
		return nil, errutil.ValidationFailed("term_days must be positive", nil)
	}

	exist, err := s.membershipSku.FindOne(ctx, &MembershipSku{Code: normalize(sku.Code)})
	if err != nil {
		return nil, errutil.Internal("failed to query membership sku", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("membership sku code already exists", nil)
	}

	row := &MembershipSku{
		ID:       s.node.Generate().Int64(),
		Code:     normalize(sku.Code),
		Name:     sku.Name,
		Location: normalize(sku.Location),
		TermDays: sku.TermDays,
		Price:    sku.Price,
	}
	if sku.Tier != nil && strings.TrimSpace(*sku.Tier) != "" {
		tier := normalize(*sku.Tier)
		row.Tier = &tier
	}

	if err := s.membershipSku.Create(ctx, row); err != nil {
		return nil, errutil.Internal("failed to create membership sku", err)
	}
	return row, nil
}
