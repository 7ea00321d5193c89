package decoder

import (
	"bytes"
	"fmt"

	"github.com/valyala/fastjson"

	"loglens/internal/record"
	"loglens/internal/value"
)

var parserPool fastjson.ParserPool

var utf8BOM = []byte("\xef\xbb\xbf")

// decodeJSONArray decodes a document that must be a single JSON array.
// Any structural failure is fatal.
func decodeJSONArray(data []byte) (*Result, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if v.Type() != fastjson.TypeArray {
		return nil, fmt.Errorf("%w: expected an array of records, got %s", ErrMalformedDocument, v.Type())
	}
	items, _ := v.Array()

	res := &Result{Records: make([]record.Record, 0, len(items))}
	for _, item := range items {
		res.Records = append(res.Records, record.FromValue(value.FromFastJSON(item)))
	}
	return res, nil
}

// decodeNDJSON decodes one record per non-blank line:
//
//   - a JSON object becomes a Structured record;
//   - a JSON string becomes PlainText holding the decoded string;
//   - any other JSON value becomes PlainText of the trimmed line;
//   - a line that opens with { or [ but does not parse is a soft error and
//     is kept as PlainText of the raw line;
//   - anything else is a bare text line.
func decodeNDJSON(data []byte) (*Result, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	data = bytes.TrimPrefix(data, utf8BOM)
	res := &Result{}
	lineNo := 0
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		lineNo++
		line = bytes.TrimSuffix(line, []byte("\r"))

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		v, err := p.ParseBytes(trimmed)
		if err != nil {
			if trimmed[0] == '{' || trimmed[0] == '[' {
				res.Errors = append(res.Errors, SoftError{Line: lineNo, Message: err.Error()})
			}
			res.Records = append(res.Records, record.PlainText(line))
			continue
		}

		switch v.Type() {
		case fastjson.TypeObject:
			res.Records = append(res.Records, record.FromValue(value.FromFastJSON(v)))
		case fastjson.TypeString:
			b, _ := v.StringBytes()
			res.Records = append(res.Records, record.PlainText(b))
		default:
			res.Records = append(res.Records, record.PlainText(trimmed))
		}
	}
	return res, nil
}
