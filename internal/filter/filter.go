package filter

import (
	"strings"

	"loglens/internal/fieldpath"
	"loglens/internal/record"
)

// Filter is a compiled clause list.
type Filter struct {
	clauses []compiledClause   // every clause, for plain-text records
	groups  [][]compiledClause // active conjunctions, for structured records
}

type compiledClause struct {
	path   fieldpath.Path
	op     Operator
	needle string // lowercased clause value
}

// Compile prepares clauses for evaluation.
func Compile(clauses []Clause) *Filter {
	f := &Filter{clauses: make([]compiledClause, len(clauses))}
	for i, c := range clauses {
		f.clauses[i] = compile(c)
	}
	for _, g := range Groups(clauses) {
		cg := make([]compiledClause, len(g))
		for i, c := range g {
			cg[i] = compile(c)
		}
		f.groups = append(f.groups, cg)
	}
	return f
}

func compile(c Clause) compiledClause {
	return compiledClause{
		path:   fieldpath.Compile(c.Field),
		op:     c.Operator,
		needle: strings.ToLower(c.Value),
	}
}

// Empty reports whether the filter has no clauses and so matches every
// record.
func (f *Filter) Empty() bool {
	return len(f.clauses) == 0
}

// Match reports whether r passes the filter.
//
// Structured records use the grouped semantics; a filter whose clauses are
// all inactive has no groups and rejects them. Plain-text records ignore fields and grouping
// and match when any clause holds against the whole line, an empty clause
// value counting as a hit.
func (f *Filter) Match(r record.Record) bool {
	if f.Empty() {
		return true
	}
	switch x := r.(type) {
	case record.PlainText:
		line := strings.ToLower(string(x))
		for _, c := range f.clauses {
			if c.needle == "" || c.test(line) {
				return true
			}
		}
		return false
	case record.Structured:
		for _, g := range f.groups {
			if matchAll(g, x) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchAll(group []compiledClause, r record.Structured) bool {
	for _, c := range group {
		if !c.test(strings.ToLower(c.path.Text(r.Fields))) {
			return false
		}
	}
	return true
}

// test applies the operator to an already lowercased haystack.
func (c compiledClause) test(hay string) bool {
	switch c.op {
	case Contains:
		return strings.Contains(hay, c.needle)
	case NotContains:
		return !strings.Contains(hay, c.needle)
	case Equals:
		return hay == c.needle
	default:
		return true
	}
}

// Evaluate returns the records that pass clauses, in input order.
func Evaluate(records []record.Record, clauses []Clause) []record.Record {
	f := Compile(clauses)
	if f.Empty() {
		return records
	}
	var out []record.Record
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
