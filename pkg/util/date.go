package util

import (
	"fmt"
	"time"
)

// DateLayout is the storage format for calendar dates.
const DateLayout = "2006-01-02"

// FormatDate drops the clock part of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// MonthRange returns the first and last calendar day of month/year and the
// number of days in between, inclusive.
func MonthRange(month, year int) (first, last time.Time, days int, err error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid year %d", year)
	}

	first = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last, last.Day(), nil
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
