package search

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"
	"asenso-booking/services/booking"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeProjection pages over n documents with ids 1..n.
type fakeProjection struct {
	n     int
	calls int
}

func (f *fakeProjection) SearchProjection(_ context.Context, p pagination.Pagination) ([]booking.SearchDocument, *pagination.PageInfo, error) {
	f.calls++
	start := 0
	if p.Cursor != "" {
		c, err := pagination.DecodeCursor(p.Cursor)
		if err != nil {
			return nil, nil, err
		}
		start, _ = strconv.Atoi(c.ID)
	}

	var docs []booking.SearchDocument
	for id := start + 1; id <= f.n && len(docs) < p.Limit; id++ {
		docs = append(docs, booking.SearchDocument{ID: int64(id), Code: "BK-" + strconv.Itoa(id)})
	}
	if len(docs) == 0 {
		return nil, &pagination.PageInfo{}, nil
	}

	next, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(docs[len(docs)-1].ID, 10)})
	return docs, &pagination.PageInfo{NextCursor: next, HasMore: int(docs[len(docs)-1].ID) < f.n}, nil
}

type fakeIndexer struct {
	ids    []int64
	failAt int
}

func (f *fakeIndexer) Index(_ context.Context, docs []booking.SearchDocument) error {
	for _, d := range docs {
		if f.failAt != 0 && int(d.ID) == f.failAt {
			return errors.New("index unavailable")
		}
		f.ids = append(f.ids, d.ID)
	}
	return nil
}

func TestSyncPagesThroughAllBookings(t *testing.T) {
	proj := &fakeProjection{n: 7}
	idx := &fakeIndexer{}
	svc := newService(proj, idx, 3)

	_, n, err := svc.Sync(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, idx.ids)
	require.Equal(t, 3, proj.calls)
}

func TestSyncStopsOnIndexerError(t *testing.T) {
	idx := &fakeIndexer{failAt: 5}
	svc := newService(&fakeProjection{n: 7}, idx, 3)

	cursor, n, err := svc.Sync(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, 3, n)

	c, err := pagination.DecodeCursor(cursor)
	require.NoError(t, err)
	require.Equal(t, "3", c.ID)
}

func TestHandleSyncTask(t *testing.T) {
	idx := &fakeIndexer{}
	svc := newService(&fakeProjection{n: 2}, idx, 0)

	tk, err := task.NewJSONTask(taskname.BookingSearchSync, SyncPayload{})
	require.NoError(t, err)
	require.NoError(t, svc.HandleSyncTask(context.Background(), tk))
	require.Len(t, idx.ids, 2)
}
