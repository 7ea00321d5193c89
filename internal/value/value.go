// Package value defines the typed value tree produced by the notation
// parser, the cell coercer and the JSON decoders.
//
// Value is a closed sum type: the unexported marker method keeps other
// packages from adding variants, so a type switch over the six concrete
// types below covers every case.
package value

import (
	"math"
	"sort"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is one node of a value tree.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is the absent/empty value.
type Null struct{}

// Bool is a boolean leaf.
type Bool bool

// Number is a numeric leaf. All numbers are float64, matching JSON.
type Number float64

// Text is a string leaf.
type Text string

// List is an ordered sequence of values.
type List []Value

// Map is an unordered mapping from key to value.
type Map map[string]Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (Text) Kind() Kind   { return KindText }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }

func (Null) sealed()   {}
func (Bool) sealed()   {}
func (Number) sealed() {}
func (Text) sealed()   {}
func (List) sealed()   {}
func (Map) sealed()    {}

// MarshalJSON renders Null as JSON null. The other variants marshal
// natively (Map keys are emitted sorted by encoding/json).
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IsStructure reports whether v is a List or a Map.
func IsStructure(v Value) bool {
	switch v.(type) {
	case List, Map:
		return true
	default:
		return false
	}
}

// Equal reports whether a and b are the same tree. Map key order is
// irrelevant; list order is significant.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatNumber renders f the way a JavaScript engine would print it:
// integral values without a fraction or exponent (below 1e21), everything
// else in shortest round-trip form.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String flattens v to the text used for matching and sorting: Null is
// empty, scalars print plainly, structures render as canonical JSON.
func String(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		return strconv.FormatBool(bool(x))
	case Number:
		return FormatNumber(float64(x))
	case Text:
		return string(x)
	case List, Map:
		return JSON(x)
	default:
		return ""
	}
}
