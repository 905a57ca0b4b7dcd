package core

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout renders timestamps as "4 Mar 2026, 09:05" (24h clock).
const DisplayLayout = "2 Jan 2006, 15:04"

// FormatDateTime formats t in its own location using DisplayLayout. The zero
// time formats as "".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayLayout)
}

// inputLayouts are tried in order for wall-clock input without an offset.
var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseExecutionTime parses a user-entered execution time. It accepts
// RFC 3339, local "YYYY-MM-DD HH:MM" forms interpreted in now's location, and
// relative "+<duration>" offsets from now (e.g. "+2h", "+24h30m"). Seconds are
// dropped and the result is returned in UTC.
func ParseExecutionTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("execution time is required")
	}

	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing relative execution time %q: %w", s, err)
		}
		return now.Add(d).Truncate(time.Minute).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Truncate(time.Minute).UTC(), nil
	}

	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t.Truncate(time.Minute).UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised execution time %q (use YYYY-MM-DD HH:MM, RFC 3339 or +duration)", s)
}
