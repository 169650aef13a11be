package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used in API query parameters.
const DateLayout = "2006-01-02"

// DateLayouts lists the layouts accepted by ParseDate, in the order they are tried.
var DateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date-like string. Date-only, RFC3339 and naive
// date-time values are accepted; the time component is kept as given.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected one of %s)", s, strings.Join(DateLayouts, ", "))
}

// ParseTimestamp parses an observation timestamp as returned by the API,
// e.g. "2024-01-15T10:00:00Z" or "2024-01-15T10:00:00.000Z".
func ParseTimestamp(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatDate formats t as YYYY-MM-DD, dropping any time component.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CivilDate returns midnight UTC of the calendar date of t in its own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDays returns the number of calendar days from one date to another.
// The result is negative when to is before from.
func CalendarDays(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)).Hours() / 24)
}
