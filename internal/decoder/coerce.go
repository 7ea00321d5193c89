package decoder

import (
	"strings"

	"loglens/internal/digester/timestamp"
	"loglens/internal/notation"
	"loglens/internal/value"
)

// Coerce types a single table cell. Checks run in order:
//
//  1. empty cell: Null
//  2. timestamp column: epoch values normalized, as Text
//  3. bounded by {} or []: notation, then JSON, else the raw text
//  4. true/false (any case): Bool
//  5. null (any case): Null
//  6. decimal of at most 16 characters: Number
//  7. otherwise the raw text, untrimmed
func Coerce(column, raw string) value.Value {
	if raw == "" {
		return value.Null{}
	}
	if timestamp.IsColumn(column) {
		return value.Text(timestamp.Normalize(raw))
	}

	trimmed := strings.TrimSpace(raw)
	if notation.LooksStructured(trimmed) {
		if v, err := notation.ParseStrict(trimmed); err == nil {
			return v
		}
		if v, err := value.ParseJSON(trimmed); err == nil {
			return v
		}
		return value.Text(raw)
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "null":
		return value.Null{}
	}
	if f, ok := notation.ParseNumber(trimmed); ok {
		return value.Number(f)
	}
	return value.Text(raw)
}
