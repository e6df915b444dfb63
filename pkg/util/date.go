package util

import (
	"strconv"
	"time"
)

// BRDate is the day-first layout used for exported dates.
const BRDate = "02/01/2006"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatBR renders t as dd/mm/YYYY.
func FormatBR(t time.Time) string { return t.Format(BRDate) }

// ParseDate accepts YYYY-MM-DD, dd/mm/YYYY, RFC3339 and unix seconds, and
// returns the calendar day. ok is false when nothing matched.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.DateOnly, BRDate, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return Day(time.Unix(ts, 0).UTC()), true
	}
	return time.Time{}, false
}
