// Package filter evaluates grouped filter clauses against log records and
// orders records by a field.
//
// Clauses form a disjunctive normal form: consecutive clauses joined by
// AND make one conjunction, and a clause whose relation is OR starts the
// next one. A record matches when any conjunction has all of its clauses
// true.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOperator  = errors.New("invalid filter operator")
	ErrInvalidRelation  = errors.New("invalid filter relation")
	ErrInvalidDirection = errors.New("invalid sort direction")
)

// Operator compares a field value with a clause value.
type Operator string

const (
	Contains    Operator = "contains"
	NotContains Operator = "not_contains"
	Equals      Operator = "equals"
)

// ParseOperator parses an operator name, accepting "!contains" and "=" as
// shorthands.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contains", "~":
		return Contains, nil
	case "not_contains", "!contains", "!~":
		return NotContains, nil
	case "equals", "=", "==":
		return Equals, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
}

func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Relation joins a clause to the clause before it.
type Relation string

const (
	And Relation = "AND"
	Or  Relation = "OR"
)

func (r *Relation) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "", "AND":
		*r = And
	case "OR":
		*r = Or
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRelation, b)
	}
	return nil
}

// Clause is one filter condition. Relation connects it to the previous
// clause; the first clause's relation is ignored.
type Clause struct {
	ID       int64    `json:"id" yaml:"id"`
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
	Relation Relation `json:"relation" yaml:"relation"`
}

// Active reports whether the clause takes part in grouping. Clauses with
// an empty field or value are skipped.
func (c Clause) Active() bool {
	return c.Field != "" && c.Value != ""
}

// Groups splits clauses into conjunctions. Inactive clauses are skipped
// and never close a group. A group closes after a clause that is the last
// one or is followed by an OR clause.
func Groups(clauses []Clause) [][]Clause {
	var groups [][]Clause
	var cur []Clause
	for i, c := range clauses {
		if !c.Active() {
			continue
		}
		cur = append(cur, c)
		if i == len(clauses)-1 || clauses[i+1].Relation == Or {
			groups = append(groups, cur)
			cur = nil
		}
	}
	// A trailing inactive clause would otherwise strand the open group.
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// ActiveSearchTerms returns the values of "message contains" clauses, the
// terms a viewer highlights.
func ActiveSearchTerms(clauses []Clause) []string {
	var terms []string
	for _, c := range clauses {
		if c.Field == "message" && c.Value != "" && c.Operator == Contains {
			terms = append(terms, c.Value)
		}
	}
	return terms
}
