package timestamp

import (
	"loglens/internal/fieldpath"
	"loglens/internal/value"
)

// Candidates are the keys searched, in order, for a record's timestamp
// when no timestamp field is configured.
var Candidates = []string{"timestamp", "time", "date", "@timestamp", "datetime", "created_at", "createdAt", "updated_at", "updatedAt"}

// Field returns the normalized timestamp of fields. A non-empty
// configured path is resolved first; otherwise, or when it yields
// nothing, the first present top-level candidate is used. The result is
// "" when no timestamp is found.
func Field(fields value.Map, configured string) string {
	if configured != "" {
		if v, ok := fieldpath.Resolve(fields, configured); ok && present(v) {
			return Normalize(value.String(v))
		}
	}
	for _, key := range Candidates {
		if v, ok := fields[key]; ok && present(v) {
			return Normalize(value.String(v))
		}
	}
	return ""
}

func present(v value.Value) bool {
	switch x := v.(type) {
	case nil, value.Null:
		return false
	case value.Text:
		return x != ""
	default:
		return true
	}
}
