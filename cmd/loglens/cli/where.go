package cli

import (
	"fmt"
	"strings"
	"time"

	"loglens/internal/filter"
)

// parseWhere parses --where expressions of the form field:op:value into
// clauses. A leading "|" joins the clause with OR instead of AND. The
// value may itself contain colons.
func parseWhere(exprs []string, nextID func(time.Time) int64) ([]filter.Clause, error) {
	var clauses []filter.Clause
	var last int64
	for _, expr := range exprs {
		rel := filter.And
		if rest, ok := strings.CutPrefix(expr, "|"); ok {
			rel = filter.Or
			expr = rest
		}
		parts := strings.SplitN(expr, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --where %q: want field:operator:value", expr)
		}
		op, err := filter.ParseOperator(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid --where %q: %w", expr, err)
		}
		id := nextID(time.Now())
		if id <= last {
			id = last + 1
		}
		last = id
		clauses = append(clauses, filter.Clause{
			ID:       id,
			Field:    strings.TrimSpace(parts[0]),
			Operator: op,
			Value:    parts[2],
			Relation: rel,
		})
	}
	return clauses, nil
}

// formatClauses renders clauses back in --where syntax.
func formatClauses(clauses []filter.Clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		prefix := ""
		if i > 0 && c.Relation == filter.Or {
			prefix = "|"
		}
		parts[i] = fmt.Sprintf("%s%s:%s:%s", prefix, c.Field, c.Operator, c.Value)
	}
	return strings.Join(parts, " ")
}
