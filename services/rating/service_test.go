package rating

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/errutil"
	"asenso-booking/services/booking"
	"asenso-booking/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeBookings map[string]*booking.Booking

func (f fakeBookings) FindByCodeTx(_ context.Context, _ *gorm.DB, code string, _ ...option.QueryOption) (*booking.Booking, error) {
	b, ok := f[code]
	if !ok {
		return nil, errutil.NotFound("booking "+code+" not found", nil)
	}
	return b, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	stars []int
	err   error
}

func (f *fakeRecorder) RecordRatingTx(_ context.Context, _ *gorm.DB, r *Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stars = append(f.stars, r.Stars)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRecorder, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Rating{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bookings := fakeBookings{
		"BK-DONE": {ID: 1, Code: "BK-DONE", CustomerID: 9001, WorkerID: 12, ServiceDate: "2026-10-16", Status: booking.StatusCompleted},
		"BK-OPEN": {ID: 2, Code: "BK-OPEN", CustomerID: 9001, WorkerID: 12, ServiceDate: "2026-10-16", Status: booking.StatusInProgress},
		"BK-ANON": {ID: 3, Code: "BK-ANON", WorkerID: 12, ServiceDate: "2026-10-16", Status: booking.StatusCompleted},
	}
	rec := &fakeRecorder{}
	return newService(db, node, bookings, rec), rec, db
}

func TestSubmitRating(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.SubmitRating(ctx, "BK-DONE", 5, "  spotless  ")
	require.NoError(t, err)
	require.Equal(t, int64(12), r.WorkerID)
	require.Equal(t, int64(9001), r.CustomerID)
	require.Equal(t, "spotless", r.Feedback)
	require.Equal(t, []int{5}, rec.stars)

	got, err := svc.ForBooking(ctx, "BK-DONE")
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)

	_, err = svc.SubmitRating(ctx, "BK-DONE", 3, "")
	require.True(t, errutil.IsConflict(err))
}

func TestSubmitRatingRejections(t *testing.T) {
	cases := []struct {
		name  string
		code  string
		stars int
		check func(error) bool
	}{
		{name: "zero stars", code: "BK-DONE", stars: 0, check: errutil.IsValidation},
		{name: "six stars", code: "BK-DONE", stars: 6, check: errutil.IsValidation},
		{name: "not completed", code: "BK-OPEN", stars: 4, check: errutil.IsValidation},
		{name: "no customer", code: "BK-ANON", stars: 4, check: errutil.IsValidation},
		{name: "unknown booking", code: "BK-NONE", stars: 4, check: errutil.IsNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, rec, _ := newTestService(t)
			_, err := svc.SubmitRating(context.Background(), tc.code, tc.stars, "")
			require.True(t, tc.check(err), "got %v", err)
			require.Empty(t, rec.stars)
		})
	}
}

func TestSubmitRatingConcurrentOnlyOneWins(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	const racers = 4
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(stars int) {
			defer wg.Done()
			_, err := svc.SubmitRating(ctx, "BK-DONE", stars, "")
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		if err == nil {
			ok++
		} else if errutil.IsConflict(err) {
			conflicts++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, racers-1, conflicts)

	var count int64
	require.NoError(t, db.Model(&Rating{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSubmitRatingRollsBack(t *testing.T) {
	svc, rec, db := newTestService(t)
	rec.err = errors.New("snapshot unavailable")

	_, err := svc.SubmitRating(context.Background(), "BK-DONE", 4, "")
	require.Equal(t, errutil.StatusInternal, errutil.Code(err))

	var count int64
	require.NoError(t, db.Model(&Rating{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitRatingDuplicateKeyIsConflict(t *testing.T) {
	svc, rec, db := newTestService(t)

	// A competing submission lands between the existence check and the insert.
	var once sync.Once
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:competing_rating", func(tx *gorm.DB) {
		if tx.Statement.Table != "ratings" {
			return
		}
		once.Do(func() {
			tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO ratings (id, booking_id, worker_id, customer_id, stars, feedback, service_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				99, 1, 12, 9001, 5, "", "2026-10-16", time.Now().UTC(),
			)
		})
	}))

	_, err := svc.SubmitRating(context.Background(), "BK-DONE", 3, "")
	require.True(t, errutil.IsConflict(err), "got %v", err)
	require.Empty(t, rec.stars)
}
