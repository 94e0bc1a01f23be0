// Package calday handles calendar days: dates without a time component,
// represented as midnight UTC.
package calday

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Of returns the calendar day t falls on in t's own location.
func Of(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Of(now.In(loc))
}

// EndExclusive is the first instant after day ends in loc. Rows stamped
// strictly before it existed on day.
func EndExclusive(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
}

func Equal(a, b time.Time) bool {
	return Of(a).Equal(Of(b))
}

func Format(day time.Time) string {
	return day.Format(Layout)
}

func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	parsed, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return parsed, nil
}

// Trailing returns the n days ending at (and including) last, oldest first.
func Trailing(last time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	last = Of(last)
	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, last.AddDate(0, 0, -i))
	}
	return days
}
