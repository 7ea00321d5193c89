package filter

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"loglens/internal/fieldpath"
	"loglens/internal/record"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection parses "asc" or "desc"; "" is Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d *Direction) UnmarshalText(b []byte) error {
	dir, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// Comparator orders records by one field.
//
// Values compare as text with the root collation, ignoring case and
// accents and ordering digit runs numerically ("item2" < "item10").
// Plain-text records compare by their text with each other and always
// sort before structured records ascending, after them descending.
//
// A Comparator is not safe for concurrent use.
type Comparator struct {
	path fieldpath.Path
	dir  Direction
	coll *collate.Collator
}

// NewComparator creates a comparator for field in direction dir.
func NewComparator(field string, dir Direction) *Comparator {
	return &Comparator{
		path: fieldpath.Compile(field),
		dir:  dir,
		coll: collate.New(language.Und, collate.Loose, collate.Numeric),
	}
}

// Compare returns a negative number when a sorts before b, a positive
// number when after, and zero when they are equivalent.
func (c *Comparator) Compare(a, b record.Record) int {
	sa, aPlain := a.(record.PlainText)
	sb, bPlain := b.(record.PlainText)
	switch {
	case aPlain && bPlain:
		return c.directed(c.coll.CompareString(string(sa), string(sb)))
	case aPlain:
		return c.directed(-1)
	case bPlain:
		return c.directed(1)
	}
	return c.directed(c.coll.CompareString(c.text(a), c.text(b)))
}

func (c *Comparator) directed(n int) int {
	if c.dir == Desc {
		return -n
	}
	return n
}

func (c *Comparator) text(r record.Record) string {
	s, ok := r.(record.Structured)
	if !ok {
		return ""
	}
	return c.path.Text(s.Fields)
}

// Compare orders a and b by field in direction dir.
func Compare(a, b record.Record, field string, dir Direction) int {
	return NewComparator(field, dir).Compare(a, b)
}

// Sort returns a stably sorted copy of records. An empty field leaves the
// order unchanged.
func Sort(records []record.Record, field string, dir Direction) []record.Record {
	out := slices.Clone(records)
	if field == "" {
		return out
	}
	c := NewComparator(field, dir)
	slices.SortStableFunc(out, c.Compare)
	return out
}
