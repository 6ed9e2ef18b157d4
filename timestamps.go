package dbal

import (
	"time"
)

// DateTimeLayout is the calendar form accepted in filter criteria and written
// to *_date columns.
const DateTimeLayout = "2006-01-02 15:04:05"

// autoTimestampPrefixes are the column families whose <prefix>_time (epoch
// milliseconds) and <prefix>_date (calendar) pairs are kept in sync by the
// store's write normalization.
var autoTimestampPrefixes = []string{
	"create",
	"start",
	"end",
	"update",
	"read_access",
	"write_access",
}

// IsAutoTimeField reports whether name is the epoch half of a recognized
// timestamp pair (e.g. "create_time").
func IsAutoTimeField(name string) bool {
	return DateFieldFor(name) != ""
}

// DateFieldFor maps "<prefix>_time" to its "<prefix>_date" companion. It
// returns "" when name is not a recognized auto-timestamp field.
func DateFieldFor(name string) string {
	for _, p := range autoTimestampPrefixes {
		if name == p+"_time" {
			return p + "_date"
		}
	}
	return ""
}

// AutoTimeFields returns the epoch field names of every recognized pair.
func AutoTimeFields() []string {
	out := make([]string, len(autoTimestampPrefixes))
	for i, p := range autoTimestampPrefixes {
		out[i] = p + "_time"
	}
	return out
}

// CurrentTimestamp returns the current time as epoch milliseconds, the unit
// every *_time column stores.
func CurrentTimestamp() int64 {
	return Now().UnixMilli()
}

// TimestampToDate converts epoch milliseconds to the local calendar time
// written to the paired *_date column.
func TimestampToDate(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// DateStringToTimestamp parses a "2006-01-02 15:04:05" string in local time
// into epoch milliseconds.
func DateStringToTimestamp(s string) (int64, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// ToMillis coerces the epoch representations accepted in Values and Criteria
// (int64, int, float64, time.Time) to epoch milliseconds.
func ToMillis(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case time.Time:
		return x.UnixMilli(), true
	}
	return 0, false
}
