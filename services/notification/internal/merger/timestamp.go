package merger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"marketplace/services/notification/internal/entity"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339-like strings and epoch milliseconds. Values without a
// zone are read as UTC.
func ParseTimestamp(ts entity.Timestamp) (time.Time, bool) {
	s := strings.TrimSpace(string(ts))
	if s == "" {
		return time.Time{}, false
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// windowInstant is used for dedup bucketing: unparseable values count as now.
func windowInstant(ts entity.Timestamp, now time.Time) time.Time {
	if t, ok := ParseTimestamp(ts); ok {
		return t
	}
	return now
}

// sortKey is used for ordering: unparseable values count as the epoch so they sort last.
func sortKey(ts entity.Timestamp) int64 {
	if t, ok := ParseTimestamp(ts); ok {
		return t.UnixMilli()
	}
	return 0
}

// timeWindow is the 1-minute bucket an instant falls into.
func timeWindow(t time.Time) int64 {
	ms := t.UnixMilli()
	w := ms / 60000
	if ms%60000 < 0 {
		w--
	}
	return w
}
