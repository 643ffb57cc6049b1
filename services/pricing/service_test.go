package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"
	"asenso-booking/services/catalog"
	"asenso-booking/services/membership"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const (
	member    int64 = 1001
	nonMember int64 = 1002
)

func newTestEngine(t *testing.T, cal Calendar) *Engine {
	t.Helper()

	db := testutil.NewTestDB(t, &catalog.ServiceSku{}, &catalog.FlexiRateCard{}, &catalog.MembershipSku{}, &membership.Membership{}, &Holiday{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Pricing.CatalogCacheTTL = time.Minute

	ctx := context.Background()
	cat := catalog.NewService(catalog.ServiceParams{DB: db, Node: node, Config: cfg})
	_, err = cat.UpsertServiceSku(ctx, &catalog.ServiceSku{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, BookingType: catalog.BookingTypeOneTime,
		Price: decimal.RequireFromString("1390.00"),
	})
	require.NoError(t, err)
	_, err = cat.UpsertFlexiRateCard(ctx, &catalog.FlexiRateCard{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay,
		BaseRate: decimal.RequireFromString("650.00"), Surge: decimal.RequireFromString("65.00"),
	})
	require.NoError(t, err)

	tier := "REGULAR"
	require.NoError(t, db.Create(&membership.Membership{
		ID: 1, CustomerID: member, Location: "NCR", Tier: &tier,
		StartDate: "2026-10-01", EndDate: "2026-12-31", Status: membership.StatusActive,
	}).Error)

	ms := membership.NewService(membership.ServiceParams{DB: db, Node: node, Catalog: cat})
	if cal == nil {
		cal = NewDBCalendar(db)
	}

	return NewEngine(EngineParams{Catalog: cat, Memberships: ms, Calendar: cal})
}

func customer(id int64) *int64 { return &id }

func TestCalculateOneTimeIsDateIndependent(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{"2026-12-25": "Christmas Day"})

	for _, date := range []string{"2026-10-19", "2026-10-17", "2026-10-18", "2026-12-25"} {
		out, err := e.Calculate(context.Background(), Quote{
			Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: date, BookingType: catalog.BookingTypeOneTime,
		})
		require.NoError(t, err, date)
		require.Equal(t, "1390.00", out.Total.StringFixed(2), date)
		require.True(t, out.Surge.IsZero(), date)
	}
}

func TestCalculateFlexiSurge(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{"2026-12-25": "Christmas Day"})

	tests := []struct {
		name    string
		date    string
		dayType DayType
		surge   string
		total   string
	}{
		{name: "saturday", date: "2026-10-17", dayType: DayTypeWeekend, surge: "65.00", total: "715.00"},
		{name: "sunday", date: "2026-10-18", dayType: DayTypeWeekend, surge: "65.00", total: "715.00"},
		{name: "monday", date: "2026-10-19", dayType: DayTypeWeekday, surge: "0.00", total: "650.00"},
		{name: "holiday on a friday", date: "2026-12-25", dayType: DayTypeHoliday, surge: "65.00", total: "715.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Calculate(context.Background(), Quote{
				Location: "ncr", Tier: "regular", Duration: catalog.DurationWholeDay, Date: tt.date,
				BookingType: catalog.BookingTypeFlexi, CustomerID: customer(member),
			})
			require.NoError(t, err)
			require.Equal(t, tt.dayType, out.DayType)
			require.Equal(t, "650.00", out.Base.StringFixed(2))
			require.Equal(t, tt.surge, out.Surge.StringFixed(2))
			require.Equal(t, tt.total, out.Total.StringFixed(2))
			require.Equal(t, int64(1), out.MembershipID)
		})
	}
}

func TestCalculateFlexiRequiresMembership(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{})
	ctx := context.Background()

	_, err := e.Calculate(ctx, Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2026-10-17",
		BookingType: catalog.BookingTypeFlexi, CustomerID: customer(nonMember),
	})
	require.True(t, errutil.IsValidation(err))

	_, err = e.Calculate(ctx, Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2026-10-17",
		BookingType: catalog.BookingTypeFlexi,
	})
	require.True(t, errutil.IsValidation(err))

	// membership exists but has lapsed
	_, err = e.Calculate(ctx, Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2027-01-02",
		BookingType: catalog.BookingTypeFlexi, CustomerID: customer(member),
	})
	require.True(t, errutil.IsValidation(err))
}

func TestCalculateMissingRates(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{})
	ctx := context.Background()

	_, err := e.Calculate(ctx, Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationHalfDay, Date: "2026-10-19", BookingType: catalog.BookingTypeTrial,
	})
	require.True(t, errutil.IsNotFound(err))

	_, err = e.Calculate(ctx, Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationHalfDay, Date: "2026-10-19",
		BookingType: catalog.BookingTypeFlexi, CustomerID: customer(member),
	})
	require.True(t, errutil.IsNotFound(err))
}

func TestCalculateAdjustments(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{})
	ctx := context.Background()

	base := Quote{Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2026-10-19", BookingType: catalog.BookingTypeOneTime}

	q := base
	q.Adjustments = []Adjustment{
		{Label: "promo", Amount: decimal.RequireFromString("-100.50")},
		{Label: "far travel", Amount: decimal.RequireFromString("50")},
	}
	out, err := e.Calculate(ctx, q)
	require.NoError(t, err)
	require.Equal(t, "-50.50", out.AdjustmentsTotal.StringFixed(2))
	require.Equal(t, "1339.50", out.Total.StringFixed(2))

	q = base
	q.Adjustments = []Adjustment{{Label: "goodwill", Amount: decimal.NewFromInt(-5000)}}
	out, err = e.Calculate(ctx, q)
	require.NoError(t, err)
	require.True(t, out.Total.IsZero())
}

func TestCalculateIsDeterministic(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{})
	q := Quote{
		Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2026-10-17",
		BookingType: catalog.BookingTypeFlexi, CustomerID: customer(member),
		Adjustments: []Adjustment{{Label: "promo", Amount: decimal.NewFromInt(-15)}},
	}

	first, err := e.Calculate(context.Background(), q)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Calculate(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, first.Total.String(), again.Total.String())
		require.Equal(t, first.Surge.String(), again.Surge.String())
	}
}

func TestCalculateValidation(t *testing.T) {
	e := newTestEngine(t, StaticCalendar{})

	_, err := e.Calculate(context.Background(), Quote{Location: "NCR", Duration: "QUARTER_DAY", Date: "17/10/2026", BookingType: catalog.BookingTypeOneTime})
	require.True(t, errutil.IsValidation(err))

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Details, 3)
}

type failingCalendar struct{}

func (failingCalendar) IsHoliday(context.Context, time.Time) (bool, error) {
	return false, errors.New("calendar unavailable")
}

func TestCalculateCalendarFailureIsInternal(t *testing.T) {
	e := newTestEngine(t, failingCalendar{})

	_, err := e.Calculate(context.Background(), Quote{Location: "NCR", Tier: "REGULAR", Duration: catalog.DurationWholeDay, Date: "2026-10-19", BookingType: catalog.BookingTypeOneTime})
	require.Equal(t, errutil.StatusInternal, errutil.Code(err))
}

func TestDBCalendar(t *testing.T) {
	db := testutil.NewTestDB(t, &Holiday{})
	cal := NewDBCalendar(db)
	ctx := context.Background()

	_, err := cal.AddHoliday(ctx, "2026-12-25", "Christmas Day")
	require.NoError(t, err)
	_, err = cal.AddHoliday(ctx, "2026-12-25", "Pasko")
	require.NoError(t, err)

	xmas, _ := time.Parse("2006-01-02", "2026-12-25")
	ok, err := cal.IsHoliday(ctx, xmas)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = cal.IsHoliday(ctx, xmas.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.False(t, ok)

	list, err := cal.ListHolidays(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Pasko", list[0].Name)
}
