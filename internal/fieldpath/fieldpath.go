// Package fieldpath resolves dotted field paths against structured records.
//
// A dotted path is ambiguous: "service.name" may name a key that contains
// a dot or a "name" key nested under "service". Resolution prefers the
// literal interpretation at every level:
//
//  1. the whole path as a literal top-level key;
//  2. for i = 1..n-1, the first i segments as nesting, then the remaining
//     segments re-joined with "." as a literal key of the reached value;
//  3. every segment as a separate nested access.
//
// Numeric segments index into lists. Paths starting with "$" that are not
// literal keys are evaluated as RFC 9535 JSONPath queries.
package fieldpath

import (
	"strconv"
	"strings"

	"github.com/theory/jsonpath"

	"loglens/internal/value"
)

// Path is a compiled field path. The zero value resolves nothing.
type Path struct {
	raw      string
	segments []string
	query    *jsonpath.Path
}

// Compile prepares path for repeated resolution.
func Compile(path string) Path {
	p := Path{raw: path, segments: strings.Split(path, ".")}
	if strings.HasPrefix(path, "$") {
		if q, err := jsonpath.Parse(path); err == nil {
			p.query = q
		}
	}
	return p
}

// String returns the path as written.
func (p Path) String() string { return p.raw }

// Resolve looks the path up in fields. The boolean is false when nothing
// was found; a present JSON null resolves to value.Null with true.
func (p Path) Resolve(fields value.Map) (value.Value, bool) {
	if fields == nil || p.raw == "" {
		return nil, false
	}
	if v, ok := fields[p.raw]; ok {
		return v, true
	}
	if p.query != nil {
		return p.selectQuery(fields)
	}

	for i := 1; i < len(p.segments); i++ {
		cur, ok := walk(fields, p.segments[:i])
		if !ok {
			continue
		}
		if v, ok := step(cur, strings.Join(p.segments[i:], ".")); ok {
			return v, true
		}
	}

	return walk(fields, p.segments)
}

func (p Path) selectQuery(fields value.Map) (value.Value, bool) {
	nodes := p.query.Select(value.ToAny(fields))
	switch len(nodes) {
	case 0:
		return nil, false
	case 1:
		v, err := value.FromAny(nodes[0])
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		out := make(value.List, 0, len(nodes))
		for _, n := range nodes {
			v, err := value.FromAny(n)
			if err != nil {
				continue
			}
			out = append(out, v)
		}
		return out, true
	}
}

// walk follows segments one access at a time.
func walk(v value.Value, segments []string) (value.Value, bool) {
	cur := v
	for _, seg := range segments {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// step performs a single access: a key on a map or an index on a list.
func step(v value.Value, key string) (value.Value, bool) {
	switch x := v.(type) {
	case value.Map:
		e, ok := x[key]
		return e, ok
	case value.List:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(x) || strconv.Itoa(i) != key {
			return nil, false
		}
		return x[i], true
	default:
		return nil, false
	}
}

// Resolve is Compile(path).Resolve(fields). Callers resolving the same
// path against many records should compile it once.
func Resolve(fields value.Map, path string) (value.Value, bool) {
	return Compile(path).Resolve(fields)
}

// Text resolves the path and flattens the result with value.String.
// Absent fields and nulls yield "".
func (p Path) Text(fields value.Map) string {
	v, ok := p.Resolve(fields)
	if !ok {
		return ""
	}
	return value.String(v)
}

// ContainerPrefixes are wrapper keys that log shippers commonly nest the
// original event under, for example CloudWatch's "@message".
var ContainerPrefixes = []string{"@message", "message", "data", "body", "payload", "log", "record"}

// WithContainers returns the candidates followed by every candidate
// under every container prefix, in that order.
func WithContainers(candidates []string) []string {
	out := make([]string, 0, len(candidates)*(1+len(ContainerPrefixes)))
	out = append(out, candidates...)
	for _, prefix := range ContainerPrefixes {
		for _, c := range candidates {
			out = append(out, prefix+"."+c)
		}
	}
	return out
}
