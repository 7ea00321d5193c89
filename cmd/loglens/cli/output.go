package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vmihailenco/msgpack/v5"

	"loglens/internal/digester/level"
	"loglens/internal/digester/timestamp"
	"loglens/internal/record"
)

// maxTextWidth truncates the TEXT column of record tables.
const maxTextWidth = 120

// printer handles table, JSON, NDJSON or msgpack output.
type printer struct {
	format string
	w      io.Writer

	// levelField and timestampField select the LEVEL and TIMESTAMP
	// columns of record tables. Empty means auto-detect.
	levelField     string
	timestampField string
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case "table", "json", "ndjson", "msgpack":
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json, ndjson or msgpack)", format)
	}
	return &printer{format: format, w: w}, nil
}

// structured reports whether the output is machine-readable.
func (p *printer) structured() bool {
	return p.format != "table"
}

// emit writes v in the machine-readable format. NDJSON falls back to
// compact JSON for non-record values.
func (p *printer) emit(v any) error {
	switch p.format {
	case "msgpack":
		return p.msgpack(v)
	case "ndjson":
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	default:
		return p.json(v)
	}
}

// json marshals v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// msgpack encodes v with map keys sorted.
func (p *printer) msgpack(v any) error {
	enc := msgpack.NewEncoder(p.w)
	enc.SetSortMapKeys(true)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}

// records prints records with their dataset positions. Machine formats
// emit the records themselves; NDJSON writes one per line.
func (p *printer) records(indices []int, recs []record.Record) error {
	if p.structured() {
		if p.format == "ndjson" {
			for _, r := range recs {
				if err := p.emit(record.ToAny(r)); err != nil {
					return err
				}
			}
			return nil
		}
		out := make([]any, len(recs))
		for i, r := range recs {
			out[i] = record.ToAny(r)
		}
		return p.emit(out)
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		pos := i
		if i < len(indices) {
			pos = indices[i]
		}
		rows[i] = []string{
			strconv.Itoa(pos + 1),
			level.OfField(r, p.levelField),
			recordTime(r, p.timestampField),
			truncate(record.String(r), maxTextWidth),
		}
	}
	p.table([]string{"#", "LEVEL", "TIMESTAMP", "TEXT"}, rows)
	return nil
}

// recordTime returns the normalized timestamp of a structured record:
// the configured field when set and present, else the first timestamp
// candidate in priority order.
func recordTime(r record.Record, field string) string {
	s, ok := r.(record.Structured)
	if !ok {
		return ""
	}
	return timestamp.Field(s.Fields, field)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
