// Package timestamp recognizes timestamp columns and normalizes epoch
// values in them to ISO 8601 UTC.
package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical output format: millisecond precision, UTC.
const Layout = "2006-01-02T15:04:05.000Z"

// Epoch ranges. Values in [1e9, 1e10) are seconds and values in
// [1e12, 1e14) are milliseconds; both cover roughly 2001 to 2286.
const (
	minSeconds = 1e9
	maxSeconds = 1e10
	minMillis  = 1e12
	maxMillis  = 1e14
)

// columns is the case-insensitive allow-list of timestamp column names.
var columns = map[string]bool{
	"timestamp":  true,
	"time":       true,
	"date":       true,
	"@timestamp": true,
	"datetime":   true,
	"created_at": true,
	"createdat":  true,
	"updated_at": true,
	"updatedat":  true,
}

// IsColumn reports whether a column of this name holds timestamps.
func IsColumn(name string) bool {
	return columns[strings.ToLower(name)]
}

// Normalize converts an epoch-seconds or epoch-milliseconds string to
// Layout. ISO 8601 date-times, non-numeric text and out-of-range numbers
// are returned unchanged.
func Normalize(s string) string {
	if hasISOPrefix(s) {
		return s
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	switch {
	case f >= minSeconds && f < maxSeconds:
		return Format(time.UnixMilli(int64(f * 1000)))
	case f >= minMillis && f < maxMillis:
		return Format(time.UnixMilli(int64(f)))
	default:
		return s
	}
}

// Format renders t in Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// hasISOPrefix reports whether s starts with YYYY-MM-DDT.
func hasISOPrefix(s string) bool {
	if len(s) < 11 {
		return false
	}
	for i := range 10 {
		switch i {
		case 4, 7:
			if s[i] != '-' {
				return false
			}
		default:
			if !isDigit(s[i]) {
				return false
			}
		}
	}
	return s[10] == 'T'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
