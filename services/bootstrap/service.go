package bootstrap

import (
	"context"
	"fmt"
	"time"

	"asenso-booking/pkg/repository"
	"asenso-booking/services/availability"
	"asenso-booking/services/booking"
	"asenso-booking/services/catalog"
	"asenso-booking/services/loyalty"
	"asenso-booking/services/membership"
	"asenso-booking/services/performance"
	"asenso-booking/services/pricing"
	"asenso-booking/services/rating"
	"asenso-booking/services/scheduler"
	"asenso-booking/services/violation"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models is every table the service owns, in migration order.
var Models = []any{
	&catalog.ServiceSku{},
	&catalog.FlexiRateCard{},
	&catalog.MembershipSku{},
	&membership.Membership{},
	&pricing.Holiday{},
	&booking.Booking{},
	&booking.ActivityLogEntry{},
	&booking.Attachment{},
	&availability.Slot{},
	&loyalty.Tier{},
	&loyalty.Account{},
	&loyalty.Transaction{},
	&violation.Type{},
	&violation.Violation{},
	&rating.Rating{},
	&performance.Snapshot{},
	&scheduler.Job{},
}

var defaultTiers = []loyalty.Tier{
	{Code: "ENTRY", Name: "Entry", MinPoints: 0, Rank: 1},
	{Code: "BASIC", Name: "Basic", MinPoints: 50, Rank: 2},
	{Code: "ADVANCED", Name: "Advanced", MinPoints: 150, Rank: 3},
	{Code: "EXPERT", Name: "Expert", MinPoints: 300, Rank: 4},
}

var defaultViolationTypes = []violation.Type{
	{Code: "LATE", Name: "Late arrival", Severity: violation.SeverityMinor, Points: -5},
	{Code: "INCOMPLETE", Name: "Incomplete service", Severity: violation.SeverityMinor, Points: -10},
	{Code: "NO_SHOW", Name: "No show", Severity: violation.SeverityMajor, Points: -20},
	{Code: "MISCONDUCT", Name: "Misconduct", Severity: violation.SeverityMajor, Points: -50},
}

type Service struct {
	db    *gorm.DB
	tiers repository.Repository[loyalty.Tier]
	types repository.Repository[violation.Type]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		tiers: repository.ProvideStore[loyalty.Tier](p.DB),
		types: repository.ProvideStore[violation.Type](p.DB),
	}
}

func (s *Service) Migrate() error {
	if err := s.db.AutoMigrate(Models...); err != nil {
		zap.L().Error("[bootstrap] auto migrate failed", zap.Error(err))
		return fmt.Errorf("auto migrate: %w", err)
	}
	zap.L().Info("[bootstrap] schema migrated", zap.Int("models", len(Models)))
	return nil
}

// Seed inserts the default tiers and violation types when their tables are
// empty. Existing rows are never touched.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.tiers.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count tiers: %w", err)
	}
	if count == 0 {
		rows := make([]*loyalty.Tier, 0, len(defaultTiers))
		for i := range defaultTiers {
			t := defaultTiers[i]
			rows = append(rows, &t)
		}
		if err := s.tiers.BatchCreate(ctx, rows); err != nil {
			return fmt.Errorf("seed tiers: %w", err)
		}
		zap.L().Info("[bootstrap] seeded loyalty tiers", zap.Int("count", len(rows)))
	}

	count, err = s.types.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count violation types: %w", err)
	}
	if count == 0 {
		now := time.Now().UTC()
		rows := make([]*violation.Type, 0, len(defaultViolationTypes))
		for i := range defaultViolationTypes {
			t := defaultViolationTypes[i]
			t.CreatedAt, t.UpdatedAt = now, now
			rows = append(rows, &t)
		}
		if err := s.types.BatchCreate(ctx, rows); err != nil {
			return fmt.Errorf("seed violation types: %w", err)
		}
		zap.L().Info("[bootstrap] seeded violation types", zap.Int("count", len(rows)))
	}

	return nil
}
