package loyalty

import (
	"context"
	"errors"
	"sync"
	"testing"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/services/catalog"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Transaction{}, &Account{}, &Tier{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Loyalty.TrialPoints = 5
	cfg.Loyalty.OneTimePoints = 10
	cfg.Loyalty.FlexiPoints = 10

	return NewService(ServiceParams{DB: db, Node: node, Config: cfg})
}

func seedTiers(t *testing.T, s *Service, tiers ...Tier) {
	t.Helper()
	for i := range tiers {
		_, err := s.UpsertTier(context.Background(), &tiers[i])
		require.NoError(t, err)
	}
}

var defaultTiers = []Tier{
	{Code: "ENTRY", Name: "Entry", MinPoints: 0, Rank: 1},
	{Code: "BASIC", Name: "Basic", MinPoints: 50, Rank: 2},
	{Code: "ADVANCED", Name: "Advanced", MinPoints: 150, Rank: 3},
	{Code: "EXPERT", Name: "Expert", MinPoints: 300, Rank: 4},
}

func TestBalanceTracksLedgerSum(t *testing.T) {
	svc := newTestService(t)
	seedTiers(t, svc, defaultTiers...)
	ctx := context.Background()
	const worker int64 = 77

	steps := []struct {
		points int64
		typ    TransactionType
		tier   string
	}{
		{points: 30, typ: Adjustment, tier: "ENTRY"},
		{points: 25, typ: Adjustment, tier: "BASIC"},
		{points: -20, typ: Violation, tier: "ENTRY"},
		{points: 200, typ: Adjustment, tier: "ADVANCED"},
		{points: 65, typ: Adjustment, tier: "EXPERT"},
		{points: -10, typ: SpendReward, tier: "ADVANCED"},
	}

	var want int64
	for _, step := range steps {
		_, err := svc.Post(ctx, Entry{WorkerID: worker, Points: step.points, Type: step.typ})
		require.NoError(t, err)
		want += step.points

		summary, err := svc.Balance(ctx, worker)
		require.NoError(t, err)
		require.Equal(t, want, summary.Balance)

		sum, err := svc.ledgerSum(ctx, svc.db, worker)
		require.NoError(t, err)
		require.Equal(t, sum, summary.Balance)

		tier, err := svc.GetTier(ctx, worker)
		require.NoError(t, err)
		require.Equal(t, step.tier, tier.Code, "balance %d", want)

		var account Account
		require.NoError(t, svc.db.First(&account, "worker_id = ?", worker).Error)
		require.Equal(t, step.tier, account.TierCode)
	}
}

func TestGetTierPolicy(t *testing.T) {
	t.Run("no tiers defined", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.GetTier(context.Background(), 1)
		require.True(t, errutil.IsNotFound(err))
	})

	t.Run("below lowest threshold gets lowest tier", func(t *testing.T) {
		svc := newTestService(t)
		seedTiers(t, svc,
			Tier{Code: "ADVANCED", Name: "Advanced", MinPoints: 50, Rank: 2},
			Tier{Code: "BASIC", Name: "Basic", MinPoints: 10, Rank: 1},
		)

		tier, err := svc.GetTier(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, "BASIC", tier.Code)

		_, err = svc.Debit(context.Background(), 1, nil, 5, Violation, "late")
		require.NoError(t, err)

		tier, err = svc.GetTier(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, "BASIC", tier.Code)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		svc := newTestService(t)
		seedTiers(t, svc, defaultTiers...)

		_, err := svc.Credit(context.Background(), 1, nil, 150, Adjustment, "")
		require.NoError(t, err)

		tier, err := svc.GetTier(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, "ADVANCED", tier.Code)
	})
}

func TestPostValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []Entry{
		{WorkerID: 0, Points: 10, Type: Adjustment},
		{WorkerID: 1, Points: 10, Type: "BONUS"},
		{WorkerID: 1, Points: -10, Type: EarnBooking},
		{WorkerID: 1, Points: 10, Type: Violation},
		{WorkerID: 1, Points: 0, Type: Adjustment},
	}
	for _, e := range cases {
		_, err := svc.Post(ctx, e)
		require.True(t, errutil.IsValidation(err), "%+v", e)
	}

	_, err := svc.Credit(ctx, 1, nil, -5, Adjustment, "")
	require.True(t, errutil.IsValidation(err))

	var count int64
	require.NoError(t, svc.db.Model(&Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSpendRewardNeedsBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, 5, nil, 20, Adjustment, "")
	require.NoError(t, err)

	_, err = svc.Debit(ctx, 5, nil, 25, SpendReward, "gift card")
	require.True(t, errutil.IsValidation(err))

	txn, err := svc.Debit(ctx, 5, nil, 20, SpendReward, "gift card")
	require.NoError(t, err)
	require.Equal(t, int64(-20), txn.Points)

	summary, err := svc.Balance(ctx, 5)
	require.NoError(t, err)
	require.Zero(t, summary.Balance)
}

func TestEarnForBookingIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := svc.db.Transaction(func(tx *gorm.DB) error {
			txn, err := svc.EarnForBookingTx(ctx, tx, 9, 555, catalog.BookingTypeOneTime)
			require.NotNil(t, txn)
			return err
		})
		require.NoError(t, err)
	}

	var rows []Transaction
	require.NoError(t, svc.db.Find(&rows, "worker_id = ?", 9).Error)
	require.Len(t, rows, 1)
	require.Equal(t, EarnBooking, rows[0].Type)
	require.Equal(t, int64(10), rows[0].Points)
	require.Equal(t, int64(555), *rows[0].BookingID)

	err := svc.db.Transaction(func(tx *gorm.DB) error {
		txn, err := svc.EarnForBookingTx(ctx, tx, 9, 556, catalog.BookingTypeTrial)
		require.Equal(t, int64(5), txn.Points)
		return err
	})
	require.NoError(t, err)

	summary, err := svc.Balance(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, int64(15), summary.Balance)
}

func TestPostTxRollsBackWithCaller(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	boom := errors.New("rating insert failed")

	err := svc.db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.PostTx(ctx, tx, Entry{WorkerID: 3, Points: 10, Type: Adjustment}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	summary, err := svc.Balance(ctx, 3)
	require.NoError(t, err)
	require.Zero(t, summary.Balance)

	var count int64
	require.NoError(t, svc.db.Model(&Transaction{}).Where("worker_id = ?", 3).Count(&count).Error)
	require.Zero(t, count)
}

func TestConcurrentPostsKeepBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const worker int64 = 11

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			points := int64(5)
			typ := Adjustment
			if i%4 == 0 {
				points, typ = -2, Violation
			}
			_, err := svc.Post(ctx, Entry{WorkerID: worker, Points: points, Type: typ})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	summary, err := svc.Balance(ctx, worker)
	require.NoError(t, err)
	require.Equal(t, int64(15*5-5*2), summary.Balance)

	report, err := svc.VerifyLedger(ctx, worker)
	require.NoError(t, err)
	require.True(t, report.Valid(), "%+v", report)
	require.Equal(t, 20, report.Transactions)
}

func TestVerifyLedgerDetectsTampering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var second *Transaction
	for i := 0; i < 3; i++ {
		txn, err := svc.Credit(ctx, 21, nil, 10, Adjustment, "")
		require.NoError(t, err)
		if i == 1 {
			second = txn
		}
	}

	report, err := svc.VerifyLedger(ctx, 21)
	require.NoError(t, err)
	require.True(t, report.Valid())
	require.Equal(t, int64(30), report.LedgerSum)

	require.NoError(t, svc.db.Model(&Transaction{}).Where("id = ?", second.ID).Update("points", 100).Error)

	report, err = svc.VerifyLedger(ctx, 21)
	require.NoError(t, err)
	require.False(t, report.ChainValid)
	require.False(t, report.BalanceMatches)
	require.Equal(t, second.ID, report.BrokenAtID)
	require.Equal(t, int64(120), report.LedgerSum)
}

func TestListTransactionsPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Credit(ctx, 31, nil, int64(i+1), Adjustment, "")
		require.NoError(t, err)
	}

	page, info, err := svc.ListTransactions(ctx, 31, pagination.Pagination{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.True(t, info.HasMore)

	rest, info, err := svc.ListTransactions(ctx, 31, pagination.Pagination{Limit: 3, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.False(t, info.HasMore)
	require.Greater(t, rest[0].ID, page[2].ID)
}
