package pricing

import (
	"context"
	"strings"
	"time"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/util"
	"asenso-booking/services/catalog"
	"asenso-booking/services/membership"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RateCatalog interface {
	ServiceSku(ctx context.Context, key catalog.SkuKey) (*catalog.ServiceSku, error)
	FlexiRateCard(ctx context.Context, key catalog.RateKey) (*catalog.FlexiRateCard, error)
}

// Engine prices a visit. It reads no clock; the quote date and the injected
// calendar decide the day type.
type Engine struct {
	catalog     RateCatalog
	memberships membership.Validator
	calendar    Calendar
}

type EngineParams struct {
	fx.In
	Catalog     *catalog.Service
	Memberships membership.Validator
	Calendar    Calendar
}

func NewEngine(p EngineParams) *Engine {
	return &Engine{
		catalog:     p.Catalog,
		memberships: p.Memberships,
		calendar:    p.Calendar,
	}
}

func (q *Quote) normalize() {
	q.Location = strings.ToUpper(strings.TrimSpace(q.Location))
	q.Tier = strings.ToUpper(strings.TrimSpace(q.Tier))
	q.Duration = catalog.Duration(strings.ToUpper(string(q.Duration)))
	q.BookingType = catalog.BookingType(strings.ToUpper(string(q.BookingType)))
}

func (q *Quote) validate() error {
	var details []errutil.Detail
	if q.Location == "" {
		details = append(details, errutil.Detail{Field: "location", Message: "is required"})
	}
	if q.Tier == "" {
		details = append(details, errutil.Detail{Field: "tier", Message: "is required"})
	}
	if !q.Duration.Valid() {
		details = append(details, errutil.Detail{Field: "duration", Message: "must be HALF_DAY or WHOLE_DAY"})
	}
	if !q.BookingType.Valid() {
		details = append(details, errutil.Detail{Field: "booking_type", Message: "must be TRIAL, ONE_TIME or FLEXI"})
	}
	if _, err := util.ParseDate(q.Date); err != nil {
		details = append(details, errutil.Detail{Field: "date", Message: err.Error()})
	}
	if q.BookingType == catalog.BookingTypeFlexi && (q.CustomerID == nil || *q.CustomerID == 0) {
		details = append(details, errutil.Detail{Field: "customer_id", Message: "is required for FLEXI bookings"})
	}

	if len(details) > 0 {
		return errutil.ValidationFailed("invalid quote", nil, errutil.WithDetails(details...))
	}
	return nil
}

// Calculate returns base + surge + adjustments, floored at zero.
func (e *Engine) Calculate(ctx context.Context, q Quote) (*Breakdown, error) {
	q.normalize()
	if err := q.validate(); err != nil {
		return nil, err
	}

	date, _ := util.ParseDate(q.Date)
	dayType, err := e.classify(ctx, date)
	if err != nil {
		logger.FromContext(ctx).Error("failed to classify date", zap.String("date", q.Date), zap.Error(err))
		return nil, errutil.Internal("failed to classify date", err)
	}

	out := &Breakdown{
		Surge:   decimal.Zero,
		DayType: dayType,
	}

	switch q.BookingType {
	case catalog.BookingTypeTrial, catalog.BookingTypeOneTime:
		sku, err := e.catalog.ServiceSku(ctx, catalog.SkuKey{
			Location:    q.Location,
			Tier:        q.Tier,
			Duration:    q.Duration,
			BookingType: q.BookingType,
		})
		if err != nil {
			return nil, err
		}
		out.Base = sku.Price
		out.ServiceSkuID = sku.ID

	case catalog.BookingTypeFlexi:
		m, err := e.memberships.ActiveMembership(ctx, *q.CustomerID, q.Location, q.Tier, util.FormatDate(date))
		if err != nil {
			return nil, err
		}
		card, err := e.catalog.FlexiRateCard(ctx, catalog.RateKey{
			Location: q.Location,
			Tier:     q.Tier,
			Duration: q.Duration,
		})
		if err != nil {
			return nil, err
		}
		out.Base = card.BaseRate
		out.RateCardID = card.ID
		out.MembershipID = m.ID
		if dayType != DayTypeWeekday {
			out.Surge = card.Surge
		}
	}

	adjustments := decimal.Zero
	for _, a := range q.Adjustments {
		adjustments = adjustments.Add(a.Amount)
	}
	out.Adjustments = q.Adjustments
	out.AdjustmentsTotal = adjustments.Round(2)

	total := out.Base.Add(out.Surge).Add(adjustments)
	if total.IsNegative() {
		total = decimal.Zero
	}
	out.Base = out.Base.Round(2)
	out.Surge = out.Surge.Round(2)
	out.Total = total.Round(2)

	return out, nil
}

func (e *Engine) classify(ctx context.Context, date time.Time) (DayType, error) {
	holiday, err := e.calendar.IsHoliday(ctx, date)
	if err != nil {
		return "", err
	}
	if holiday {
		return DayTypeHoliday, nil
	}
	if util.IsWeekend(date) {
		return DayTypeWeekend, nil
	}
	return DayTypeWeekday, nil
}
