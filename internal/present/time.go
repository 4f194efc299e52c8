package present

import (
	"fmt"
	"time"
)

// Timestamp layouts the backend is known to emit. Naive timestamps are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// ParseTimestamp parses a backend timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("present: unrecognised timestamp %q", s)
}

// Relative describes ts relative to now ("3 hours ago"). Timestamps older than
// a week are shown as a date. Unparseable timestamps are returned unchanged.
func Relative(ts string, now time.Time) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	d := now.Sub(t)
	switch {
	case d < 0:
		return FormatDate(ts)
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	default:
		return FormatDate(ts)
	}
}

// FormatDate formats a timestamp as "Jan 2, 2006". Unparseable timestamps are
// returned unchanged.
func FormatDate(ts string) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
