package store

import (
	"fmt"
	"time"
)

// timeLayout is the RFC3339 layout used for every timestamp column. The
// fractional part is fixed-width so that lexicographic ordering in SQL
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t the way timestamp columns are stored.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses the timestamp strings stored in SQLite.
// SQLite has no native datetime type; we store RFC3339 TEXT.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse time %q: %w", s, err)
	}
	return t, nil
}
