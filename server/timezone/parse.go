package timezone

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts tried in order after normalization. Clients have
// historically submitted everything from full RFC3339 with nanoseconds down
// to bare dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a heterogeneous timestamp string into an absolute
// instant. It tolerates a missing UTC offset (interpreted as UTC), a space
// instead of the T separator, and fractional seconds of any length,
// including trailing-zero-stripping artifacts. On irrecoverable
// malformation it returns an error; callers are expected to drop the
// offending record and continue.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	// "2006-01-02 15:04:05" → "2006-01-02T15:04:05"
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	s = clampFraction(s)

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q: %w", raw, lastErr)
}

// FormatTimestamp renders an instant the way the store persists it:
// RFC3339 in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// clampFraction truncates a fractional-second part longer than nanosecond
// precision so the stdlib layouts can handle it. Shorter fractions are left
// alone; ".999999999" already accepts one to nine digits.
func clampFraction(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}

	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	digits := end - dot - 1
	if digits <= 9 {
		return s
	}
	return s[:dot+1+9] + s[end:]
}
