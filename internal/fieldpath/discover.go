package fieldpath

import (
	"sort"

	"loglens/internal/record"
	"loglens/internal/value"
)

// Discover lists the dotted field paths present in the structured
// records, sorted and de-duplicated. Nested maps contribute their own
// paths; lists are leaves. depth limits how many levels are listed
// (1 is top-level keys only); depth <= 0 means unlimited.
func Discover(records []record.Record, depth int) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		collect(seen, "", s.Fields, 1, depth)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func collect(seen map[string]struct{}, prefix string, m value.Map, level, depth int) {
	for k, v := range m {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		seen[full] = struct{}{}
		if nested, ok := v.(value.Map); ok && (depth <= 0 || level < depth) {
			collect(seen, full, nested, level+1, depth)
		}
	}
}
