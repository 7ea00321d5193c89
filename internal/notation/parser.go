// Package notation parses the brace/bracket rendering that object
// toString() methods emit into value trees, for example:
//
//	{id=uuid123, flags={isdebtor=true}, history=[{customerid=125464}], data=[1235]}
//
// Grammar:
//
//	value     = object | array | primitive
//	object    = "{" [ key "=" value { "," key "=" value } ] "}"
//	array     = "[" [ value { "," value } ] "]"
//	primitive = "null" | "true" | "false" | number | bare-string
//
// A brace span with no "=" before its first top-level "," is a set
// rendering and is parsed with the array grammar. "{}" is an empty map.
package notation

import (
	"regexp"
	"strconv"
	"strings"

	"loglens/internal/value"
)

// MaxDepth bounds container nesting. Deeper input is a parse failure.
const MaxDepth = 50

// maxNumberLen keeps long numeric identifiers as text so they are not
// rounded by float conversion.
const maxNumberLen = 16

var numberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Parse converts text to a value tree. It never fails: when text is not
// valid notation the original text is returned unchanged as value.Text.
func Parse(text string) value.Value {
	v, err := ParseStrict(text)
	if err != nil {
		return value.Text(text)
	}
	return v
}

// ParseStrict is Parse with the failure reported. Errors are *ParseError
// wrapping one of the package sentinels.
func ParseStrict(text string) (value.Value, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, newParseError(0, ErrUnexpectedEOF, "empty input")
	}
	p := &parser{in: trimmed}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.in) {
		return nil, newParseError(p.pos, ErrTrailingInput, "unexpected %q after value", p.in[p.pos])
	}
	return v, nil
}

// LooksStructured reports whether s is bounded by a matching pair of
// braces or brackets, the precondition for trying Parse on a cell.
func LooksStructured(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

type parser struct {
	in    string
	pos   int
	depth int
}

func (p *parser) parseValue() (value.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.in) {
		return value.Text(""), nil
	}
	switch p.in[p.pos] {
	case '{':
		if p.isObject() {
			return p.parseObject()
		}
		return p.parseList('{', '}')
	case '[':
		return p.parseList('[', ']')
	default:
		return p.parsePrimitive(), nil
	}
}

// isObject scans forward from the opening brace at nesting depth 0.
// "=" means object, "," means set. Reaching the closing brace first means
// object only if nothing but spaces was seen.
func (p *parser) isObject() bool {
	depth := 0
	hasContent := false
	for i := p.pos + 1; i < len(p.in); i++ {
		switch c := p.in[i]; c {
		case '{', '[':
			depth++
			hasContent = true
		case '}', ']':
			if depth == 0 {
				return !hasContent
			}
			depth--
		default:
			if depth != 0 {
				continue
			}
			switch c {
			case '=':
				return true
			case ',':
				return false
			case ' ':
			default:
				hasContent = true
			}
		}
	}
	return false
}

func (p *parser) parseObject() (value.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	p.skipSpace()

	out := value.Map{}
	if p.peek('}') {
		p.pos++
		return out, nil
	}

	for p.pos < len(p.in) {
		p.skipSpace()
		key, err := p.readKey()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = v

		if !p.comma() {
			break
		}
	}

	if err := p.expect('}'); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseList(open, closing byte) (value.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if err := p.expect(open); err != nil {
		return nil, err
	}
	p.skipSpace()

	out := value.List{}
	if p.peek(closing) {
		p.pos++
		return out, nil
	}

	for p.pos < len(p.in) {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		if !p.comma() {
			break
		}
	}

	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parsePrimitive() value.Value {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == ',' || c == '}' || c == ']' {
			break
		}
		p.pos++
	}
	return classify(strings.TrimSpace(p.in[start:p.pos]))
}

// classify types a bare primitive.
func classify(s string) value.Value {
	switch s {
	case "null":
		return value.Null{}
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}
	if f, ok := ParseNumber(s); ok {
		return value.Number(f)
	}
	return value.Text(s)
}

// ParseNumber accepts an optionally signed decimal of at most 16
// characters, such as "-12" or "3.25". Longer numerals, exponents and
// leading "+" are rejected so identifiers survive as text.
func ParseNumber(s string) (float64, bool) {
	if len(s) > maxNumberLen || !numberRe.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (p *parser) readKey() (string, error) {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == '=' || c == ',' || c == '{' || c == '}' || c == '[' || c == ']' {
			break
		}
		p.pos++
	}
	key := strings.TrimSpace(p.in[start:p.pos])
	if key == "" {
		return "", newParseError(start, ErrEmptyKey, "empty key")
	}
	return key, nil
}

// comma consumes a separating comma and reports whether one was found.
func (p *parser) comma() bool {
	p.skipSpace()
	if p.peek(',') {
		p.pos++
		p.skipSpace()
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.in) {
		return newParseError(p.pos, ErrUnexpectedEOF, "expected %q, got end of input", c)
	}
	if p.in[p.pos] != c {
		return newParseError(p.pos, ErrUnexpectedChar, "expected %q, got %q", c, p.in[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) peek(c byte) bool {
	return p.pos < len(p.in) && p.in[p.pos] == c
}

// skipSpace skips the space character only; tabs and newlines are content.
func (p *parser) skipSpace() {
	for p.pos < len(p.in) && p.in[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return newParseError(p.pos, ErrDepthExceeded, "nesting deeper than %d", MaxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}
