package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct{ id int64 }

func rows(n int) []*row {
	out := make([]*row, n)
	for i := range out {
		out[i] = &row{id: int64(i + 1)}
	}
	return out
}

func TestSizeClamps(t *testing.T) {
	require.Equal(t, DefaultLimit, Pagination{}.Size())
	require.Equal(t, 5, Pagination{Limit: 5}.Size())
	require.Equal(t, MaxLimit, Pagination{Limit: 10_000}.Size())
}

func TestTrimWithLookahead(t *testing.T) {
	p := Pagination{Limit: 3}

	got, info := Trim(rows(4), p, func(r *row) int64 { return r.id })
	require.Len(t, got, 3)
	require.True(t, info.HasMore)

	after, ok := Pagination{Cursor: info.NextCursor}.After()
	require.True(t, ok)
	require.Equal(t, "3", after)

	got, info = Trim(rows(2), p, func(r *row) int64 { return r.id })
	require.Len(t, got, 2)
	require.False(t, info.HasMore)

	_, info = Trim([]*row{}, p, func(r *row) int64 { return r.id })
	require.Empty(t, info.NextCursor)
}

func TestAfterIgnoresGarbage(t *testing.T) {
	_, ok := Pagination{Cursor: "%%%"}.After()
	require.False(t, ok)

	_, ok = Pagination{}.After()
	require.False(t, ok)
}
