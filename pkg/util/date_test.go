package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	first, last, days, err := MonthRange(2, 2028)
	require.NoError(t, err)
	require.Equal(t, "2028-02-01", FormatDate(first))
	require.Equal(t, "2028-02-29", FormatDate(last))
	require.Equal(t, 29, days)

	_, _, _, err = MonthRange(13, 2028)
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-17")
	require.NoError(t, err)
	require.True(t, IsWeekend(d))

	_, err = ParseDate("17/10/2026")
	require.Error(t, err)
}

func TestIsWeekend(t *testing.T) {
	require.False(t, IsWeekend(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)))
	require.True(t, IsWeekend(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)))
}
