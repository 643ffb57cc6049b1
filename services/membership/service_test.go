package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"
	"asenso-booking/services/catalog"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &catalog.MembershipSku{}, &Membership{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Pricing.CatalogCacheTTL = time.Minute
	cat := catalog.NewService(catalog.ServiceParams{DB: db, Node: node, Config: cfg})

	return NewService(ServiceParams{DB: db, Node: node, Catalog: cat})
}

func strPtr(s string) *string { return &s }

func TestPurchaseComputesInclusiveEndDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.skus.(*catalog.Service).CreateMembershipSku(ctx, &catalog.MembershipSku{
		Code: "NCR-REG-30", Name: "NCR Regular 30", Location: "NCR", Tier: strPtr("REGULAR"), TermDays: 30, Price: decimal.NewFromInt(4500),
	})
	require.NoError(t, err)

	m, err := svc.Purchase(ctx, 42, "ncr-reg-30", "2026-10-01")
	require.NoError(t, err)
	require.Equal(t, "2026-10-30", m.EndDate)
	require.Equal(t, StatusActive, m.Status)
	require.Equal(t, "REGULAR", *m.Tier)

	_, err = svc.Purchase(ctx, 42, "missing", "2026-10-01")
	require.True(t, errutil.IsNotFound(err))
}

func TestActiveMembership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []*Membership{
		{ID: 1, CustomerID: 7, Location: "NCR", Tier: strPtr("REGULAR"), StartDate: "2026-10-01", EndDate: "2026-10-31", Status: StatusActive},
		{ID: 2, CustomerID: 8, Location: "NCR", Tier: nil, StartDate: "2026-10-01", EndDate: "2026-10-31", Status: StatusActive},
		{ID: 3, CustomerID: 9, Location: "NCR", Tier: strPtr("REGULAR"), StartDate: "2026-10-01", EndDate: "2026-10-31", Status: StatusCancelled},
	}
	for _, m := range seed {
		require.NoError(t, svc.memberships.Create(ctx, m))
	}

	tests := []struct {
		name       string
		customerID int64
		location   string
		tier       string
		date       string
		wantID     int64
	}{
		{name: "exact tier", customerID: 7, location: "NCR", tier: "REGULAR", date: "2026-10-17", wantID: 1},
		{name: "range start inclusive", customerID: 7, location: "NCR", tier: "REGULAR", date: "2026-10-01", wantID: 1},
		{name: "range end inclusive", customerID: 7, location: "NCR", tier: "REGULAR", date: "2026-10-31", wantID: 1},
		{name: "null tier scope matches any tier", customerID: 8, location: "NCR", tier: "PREMIUM", date: "2026-10-17", wantID: 2},
		{name: "other tier", customerID: 7, location: "NCR", tier: "PREMIUM", date: "2026-10-17"},
		{name: "other location", customerID: 7, location: "CEBU", tier: "REGULAR", date: "2026-10-17"},
		{name: "outside range", customerID: 7, location: "NCR", tier: "REGULAR", date: "2026-11-01"},
		{name: "cancelled", customerID: 9, location: "NCR", tier: "REGULAR", date: "2026-10-17"},
		{name: "no customer", customerID: 0, location: "NCR", tier: "REGULAR", date: "2026-10-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.ActiveMembership(ctx, tt.customerID, tt.location, tt.tier, tt.date)
			if tt.wantID == 0 {
				require.Nil(t, m)
				require.True(t, errutil.IsValidation(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, m.ID)
		})
	}
}

func TestCancelAndExpire(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.memberships.Create(ctx, &Membership{ID: 10, CustomerID: 1, Location: "NCR", StartDate: "2026-09-01", EndDate: "2026-09-30", Status: StatusActive}))
	require.NoError(t, svc.memberships.Create(ctx, &Membership{ID: 11, CustomerID: 1, Location: "NCR", StartDate: "2026-10-01", EndDate: "2026-10-31", Status: StatusActive}))

	n, err := svc.ExpireLapsed(ctx, "2026-10-16")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	m, err := svc.Cancel(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, m.Status)

	_, err = svc.Cancel(ctx, 11)
	require.True(t, errutil.IsConflict(err))

	_, err = svc.Cancel(ctx, 99)
	require.True(t, errutil.IsNotFound(err))
}

func TestCancelWrapsStoreFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.memberships.Create(ctx, &Membership{ID: 12, CustomerID: 1, Location: "NCR", StartDate: "2026-10-01", EndDate: "2026-10-31", Status: StatusActive}))
	require.NoError(t, svc.db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk I/O error"))
	}))

	_, err := svc.Cancel(ctx, 12)
	require.Equal(t, errutil.StatusInternal, errutil.Code(err))
	require.Contains(t, err.Error(), "failed to cancel membership")

	m, err := svc.Get(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, StatusActive, m.Status)
}
