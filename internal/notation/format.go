package notation

import (
	"strconv"
	"strings"

	"loglens/internal/value"
)

// Format renders v in toString notation: maps as {k=v, ...} with sorted
// keys, lists as [a, b]. Text is written bare, so a tree only survives a
// Format/Parse round trip when its strings avoid the delimiters ",={}[]",
// leading or trailing spaces, and the literals null/true/false or numbers.
func Format(v value.Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v value.Value) {
	switch x := v.(type) {
	case nil, value.Null:
		sb.WriteString("null")
	case value.Bool:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case value.Number:
		sb.WriteString(value.FormatNumber(float64(x)))
	case value.Text:
		sb.WriteString(string(x))
	case value.List:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case value.Map:
		sb.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			format(sb, x[k])
		}
		sb.WriteByte('}')
	}
}
