package catalog

import (
	"context"
	"testing"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &ServiceSku{}, &FlexiRateCard{}, &MembershipSku{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Pricing.CatalogCacheTTL = time.Minute

	return NewService(ServiceParams{DB: db, Node: node, Config: cfg})
}

func TestServiceSkuLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertServiceSku(ctx, &ServiceSku{
		Location:    "ncr",
		Tier:        "regular",
		Duration:    DurationWholeDay,
		BookingType: BookingTypeOneTime,
		Price:       decimal.RequireFromString("1390.00"),
	})
	require.NoError(t, err)

	sku, err := svc.ServiceSku(ctx, SkuKey{Location: "NCR", Tier: "REGULAR", Duration: DurationWholeDay, BookingType: BookingTypeOneTime})
	require.NoError(t, err)
	require.Equal(t, "1390.00", sku.Price.StringFixed(2))

	_, err = svc.ServiceSku(ctx, SkuKey{Location: "NCR", Tier: "REGULAR", Duration: DurationHalfDay, BookingType: BookingTypeOneTime})
	require.True(t, errutil.IsNotFound(err))
}

func TestServiceSkuCachedUntilUpsert(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key := SkuKey{Location: "NCR", Tier: "REGULAR", Duration: DurationHalfDay, BookingType: BookingTypeTrial}

	_, err := svc.UpsertServiceSku(ctx, &ServiceSku{Location: "NCR", Tier: "REGULAR", Duration: DurationHalfDay, BookingType: BookingTypeTrial, Price: decimal.NewFromInt(500)})
	require.NoError(t, err)

	first, err := svc.ServiceSku(ctx, key)
	require.NoError(t, err)

	// bypass the service so only the cache can answer the old price
	require.NoError(t, svc.db.Model(&ServiceSku{}).Where("id = ?", first.ID).Update("price", decimal.NewFromInt(600)).Error)

	cached, err := svc.ServiceSku(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "500.00", cached.Price.StringFixed(2))

	_, err = svc.UpsertServiceSku(ctx, &ServiceSku{Location: "NCR", Tier: "REGULAR", Duration: DurationHalfDay, BookingType: BookingTypeTrial, Price: decimal.NewFromInt(700)})
	require.NoError(t, err)

	fresh, err := svc.ServiceSku(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "700.00", fresh.Price.StringFixed(2))
}

func TestUpsertServiceSkuRejectsFlexi(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpsertServiceSku(context.Background(), &ServiceSku{Location: "NCR", Tier: "REGULAR", Duration: DurationWholeDay, BookingType: BookingTypeFlexi, Price: decimal.NewFromInt(1)})
	require.True(t, errutil.IsValidation(err))
}

func TestFlexiRateCard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.FlexiRateCard(ctx, RateKey{Location: "NCR", Tier: "REGULAR", Duration: DurationWholeDay})
	require.True(t, errutil.IsNotFound(err))

	_, err = svc.UpsertFlexiRateCard(ctx, &FlexiRateCard{
		Location: "NCR",
		Tier:     "REGULAR",
		Duration: DurationWholeDay,
		BaseRate: decimal.RequireFromString("650.00"),
		Surge:    decimal.RequireFromString("65.00"),
	})
	require.NoError(t, err)

	card, err := svc.FlexiRateCard(ctx, RateKey{Location: "ncr", Tier: "regular", Duration: DurationWholeDay})
	require.NoError(t, err)
	require.Equal(t, "650.00", card.BaseRate.StringFixed(2))
	require.Equal(t, "65.00", card.Surge.StringFixed(2))
}

func TestCreateMembershipSkuDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sku, err := svc.CreateMembershipSku(ctx, &MembershipSku{Code: "flexi-ncr-30", Name: "Flexi NCR 30", Location: "ncr", TermDays: 30, Price: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	require.Nil(t, sku.Tier)
	require.Equal(t, "FLEXI-NCR-30", sku.Code)

	_, err = svc.CreateMembershipSku(ctx, &MembershipSku{Code: "FLEXI-NCR-30", Name: "dup", Location: "NCR", TermDays: 30})
	require.True(t, errutil.IsConflict(err))

	found, err := svc.MembershipSku(ctx, "flexi-ncr-30")
	require.NoError(t, err)
	require.Equal(t, sku.ID, found.ID)
}
