// Package level finds and normalizes the severity of log records.
//
// Structured records are searched for the usual level keys, including
// under common container prefixes. Plain-text lines are scanned for
// syslog priorities and level=/"level": pairs.
package level

import (
	"strings"

	"loglens/internal/fieldpath"
	"loglens/internal/record"
	"loglens/internal/value"
)

// Candidates are the field names searched for a level, in priority order.
var Candidates = []string{"level", "severity", "logLevel", "log_level"}

var candidatePaths = compileAll(fieldpath.WithContainers(Candidates))

// DisplayCandidates are searched, in order, for the level shown to users
// when no level field is configured. Unlike Candidates they include
// "priority".
var DisplayCandidates = []string{"level", "severity", "priority", "logLevel", "log_level"}

var displayPaths = compileAll(fieldpath.WithContainers(DisplayCandidates))

func compileAll(paths []string) []fieldpath.Path {
	out := make([]fieldpath.Path, len(paths))
	for i, p := range paths {
		out[i] = fieldpath.Compile(p)
	}
	return out
}

// Raw returns the lowercased value of the first candidate field present
// and not null, or "" when there is none.
func Raw(fields value.Map) string {
	return first(fields, candidatePaths)
}

// Field returns the lowercased level of fields for display. A non-empty
// configured path is resolved first; when it yields nothing the
// DisplayCandidates are tried in order.
func Field(fields value.Map, configured string) string {
	if configured != "" {
		if raw := first(fields, []fieldpath.Path{fieldpath.Compile(configured)}); raw != "" {
			return raw
		}
	}
	return first(fields, displayPaths)
}

func first(fields value.Map, paths []fieldpath.Path) string {
	for _, p := range paths {
		v, ok := p.Resolve(fields)
		if !ok {
			continue
		}
		if _, isNull := v.(value.Null); isNull {
			continue
		}
		return strings.ToLower(value.String(v))
	}
	return ""
}

// IsError reports whether a raw level marks an error.
func IsError(raw string) bool {
	switch raw {
	case "error", "fatal", "err":
		return true
	}
	return false
}

// IsWarning reports whether a raw level marks a warning.
func IsWarning(raw string) bool {
	return raw == "warn" || raw == "warning"
}

// Of returns the normalized level of r: one of error, warn, info, debug,
// trace, or "" when none can be determined.
func Of(r record.Record) string {
	switch x := r.(type) {
	case record.Structured:
		return Normalize(Raw(x.Fields))
	case record.PlainText:
		return FromText(string(x))
	default:
		return ""
	}
}

// OfField is Of with a configured level field for structured records.
// Trace flags use Raw and never see the configured field.
func OfField(r record.Record, configured string) string {
	if x, ok := r.(record.Structured); ok {
		return Normalize(Field(x.Fields, configured))
	}
	return Of(r)
}

// Normalize maps a raw level string to a canonical value.
func Normalize(val string) string {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "error", "err", "fatal", "critical", "emerg", "emergency", "alert", "crit", "panic":
		return "error"
	case "warn", "warning":
		return "warn"
	case "info", "notice", "informational":
		return "info"
	case "debug":
		return "debug"
	case "trace":
		return "trace"
	default:
		return ""
	}
}
