// Package decoder turns raw input documents into log records.
//
// Four input shapes are supported: a JSON array of records, newline
// delimited JSON (NDJSON), delimited tables with a header row, and
// OTLP/JSON log exports. Failures local to a line or row are collected as
// soft errors next to a best-effort fallback record, so the record count
// always matches the input. Only a structurally broken whole document is a
// hard error.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"loglens/internal/logging"
	"loglens/internal/record"
)

// ErrMalformedDocument is returned when a whole-document format cannot be
// decoded at all. No partial result accompanies it.
var ErrMalformedDocument = errors.New("malformed document")

// ErrUnknownMode is returned for a Mode the decoder does not implement.
var ErrUnknownMode = errors.New("unknown decode mode")

// Mode selects the input format.
type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeJSONArray Mode = "json"
	ModeNDJSON    Mode = "ndjson"
	ModeTable     Mode = "csv"
	ModeOTLP      Mode = "otlp"
)

// ParseMode parses a mode name. "" and "auto" are ModeAuto; "tsv" is
// ModeTable (the caller picks the tab delimiter).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ModeAuto, nil
	case "json", "array":
		return ModeJSONArray, nil
	case "ndjson", "jsonl", "log":
		return ModeNDJSON, nil
	case "csv", "tsv", "table":
		return ModeTable, nil
	case "otlp":
		return ModeOTLP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Options configure a decode.
type Options struct {
	Mode Mode

	// Delimiter separates table cells. Zero means ','.
	Delimiter rune

	// Path is consulted by ModeAuto for the file extension. Optional.
	Path string
}

// SoftError is a recoverable failure of a single line or row.
type SoftError struct {
	Line    int // 1-based line (NDJSON) or data row (table) number
	Message string
}

func (e SoftError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Result is the outcome of a decode.
type Result struct {
	Mode    Mode
	Records []record.Record
	Errors  []SoftError
}

// Summary renders the user-facing load summary.
func (r *Result) Summary() string {
	if len(r.Errors) == 0 {
		return fmt.Sprintf("%d records loaded", len(r.Records))
	}
	return fmt.Sprintf("%d records loaded, %d recoverable errors", len(r.Records), len(r.Errors))
}

// Decoder decodes documents with fixed options.
type Decoder struct {
	opts   Options
	logger *slog.Logger
}

// New creates a decoder. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Decoder {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	return &Decoder{
		opts:   opts,
		logger: logging.Default(logger).With("component", "decoder"),
	}
}

// Decode decodes a whole document.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	opts := d.opts
	if opts.Mode == ModeAuto {
		opts.Mode = DetectMode(opts.Path, data)
		if opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(opts.Path), ".tsv") {
			opts.Delimiter = '\t'
		}
	}

	var (
		res *Result
		err error
	)
	switch opts.Mode {
	case ModeJSONArray:
		res, err = decodeJSONArray(data)
	case ModeNDJSON:
		res, err = decodeNDJSON(data)
	case ModeTable:
		res, err = decodeTable(data, opts.Delimiter)
	case ModeOTLP:
		res, err = decodeOTLP(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
	if err != nil {
		return nil, err
	}
	res.Mode = opts.Mode

	d.logger.Info("decoded document", "mode", res.Mode, "records", len(res.Records), "errors", len(res.Errors))
	if len(res.Errors) > 0 {
		d.logger.Warn(res.Summary(), "first", res.Errors[0].Error())
	}
	return res, nil
}

// Decode decodes data with opts and no logging.
func Decode(data []byte, opts Options) (*Result, error) {
	return New(opts, nil).Decode(data)
}

// DetectMode picks a mode from the file extension, falling back to the
// document's first non-blank bytes.
func DetectMode(path string, data []byte) Mode {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".gz", ".zst", ".br"} {
		lower = strings.TrimSuffix(lower, suffix)
	}
	switch {
	case strings.HasSuffix(lower, ".otlp.json"):
		return ModeOTLP
	case strings.HasSuffix(lower, ".json"):
		if looksOTLP(data) {
			return ModeOTLP
		}
		return ModeJSONArray
	case strings.HasSuffix(lower, ".ndjson"), strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".log"):
		return ModeNDJSON
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return ModeTable
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		return ModeJSONArray
	case looksOTLP(trimmed):
		return ModeOTLP
	default:
		return ModeNDJSON
	}
}

func looksOTLP(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	rest := bytes.TrimLeft(trimmed[1:], " \t\r\n")
	return bytes.HasPrefix(rest, []byte(`"resourceLogs"`)) || bytes.HasPrefix(rest, []byte(`"resource_logs"`))
}
