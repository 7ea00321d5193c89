package decoder

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loglens/internal/record"
	"loglens/internal/value"
)

// decodeTable decodes delimited text with a header row. Cells are trimmed
// and coerced per column. Rows may be shorter than the header; a row with
// more cells than the header cannot be mapped onto it and falls back to
// the raw cells, extra cells keyed column_N.
func decodeTable(data []byte, delim rune) (*Result, error) {
	if delim == 0 {
		delim = ','
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	res := &Result{}
	var header []string
	var lines []string // source lines, loaded only when a row cannot be read
	row := 0
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read table: %w", err)
			}
			if header == nil {
				return nil, fmt.Errorf("%w: header: %v", ErrMalformedDocument, err)
			}
			row++
			if lines == nil {
				lines = strings.Split(string(data), "\n")
			}
			res.Errors = append(res.Errors, SoftError{Line: row, Message: pe.Error()})
			res.Records = append(res.Records, record.PlainText(sourceLine(lines, pe.StartLine)))
			continue
		}

		if header == nil {
			header = make([]string, len(cells))
			for i, c := range cells {
				header[i] = strings.TrimSpace(c)
			}
			continue
		}
		if isBlankRow(cells) {
			continue
		}

		row++
		fields, err := transformRow(header, cells)
		if err != nil {
			res.Errors = append(res.Errors, SoftError{Line: row, Message: err.Error()})
			fields = rawRow(header, cells)
		}
		res.Records = append(res.Records, record.Structured{Fields: fields})
	}
	return res, nil
}

func transformRow(header, cells []string) (value.Map, error) {
	if len(cells) > len(header) {
		return nil, fmt.Errorf("row has %d cells but the header has %d columns", len(cells), len(header))
	}
	out := make(value.Map, len(cells))
	for i, c := range cells {
		out[header[i]] = Coerce(header[i], strings.TrimSpace(c))
	}
	return out, nil
}

// rawRow keeps every cell as text, untransformed.
func rawRow(header, cells []string) value.Map {
	out := make(value.Map, len(cells))
	for i, c := range cells {
		key := "column_" + strconv.Itoa(i+1)
		if i < len(header) && header[i] != "" {
			key = header[i]
		}
		out[key] = value.Text(strings.TrimSpace(c))
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sourceLine(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n-1], "\r")
}
