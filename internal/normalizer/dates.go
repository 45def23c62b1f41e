package normalizer

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Sources report RFC 3339 timestamps, naive
// timestamps or bare calendar dates; naive values are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SafeDate parses a source date. ok is false when raw is empty or unparsable,
// so callers apply a fallback explicitly instead of carrying a zero time.
func SafeDate(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}

	return time.Time{}, false
}

// ResolveDate applies the feed's date policy: the parsed source date, or now
// when the source date is missing or invalid.
func ResolveDate(raw string, now time.Time) time.Time {
	if t, ok := SafeDate(raw); ok {
		return t
	}

	return now.UTC()
}
