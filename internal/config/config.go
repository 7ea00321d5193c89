// Package config holds the persisted viewer settings: the applied filter
// clauses, ordering and search, an optional trace field override, field
// discovery depth, and input decoding options.
//
// Config is plain data. Store implementations only serialize it;
// Validate checks its semantics and is called by consumers before use.
package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"loglens/internal/decoder"
	"loglens/internal/filter"
	"loglens/internal/trace"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Store persists and loads the configuration.
type Store interface {
	// Load reads the configuration. Returns nil if nothing exists (bootstrap signal).
	Load(ctx context.Context) (*Config, error)

	// Save replaces the stored configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config is the persisted settings document.
type Config struct {
	// Query is the applied view: filter clauses, search term and ordering.
	filter.Query `json:",inline" yaml:",inline"`

	// Trace overrides auto-detected trace field names. Empty fields
	// fall back to detection.
	Trace *trace.Config `json:"trace,omitempty" yaml:"trace,omitempty"`

	// FieldDepth limits field discovery. 0 means unlimited.
	FieldDepth int `json:"fieldDepth,omitempty" yaml:"fieldDepth,omitempty"`

	// LevelField and TimestampField name the fields shown as a record's
	// level and time. Empty means auto-detect.
	LevelField     string `json:"levelField,omitempty" yaml:"levelField,omitempty"`
	TimestampField string `json:"timestampField,omitempty" yaml:"timestampField,omitempty"`

	Decoder DecoderConfig `json:"decoder" yaml:"decoder"`
	Watch   WatchConfig   `json:"watch" yaml:"watch"`
}

// DecoderConfig selects how input is decoded.
type DecoderConfig struct {
	// Format is a decoder mode name ("auto", "json", "ndjson", "csv",
	// "tsv", "otlp"). Empty means auto.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Delimiter is the single table cell separator. Empty means ','
	// (tab for .tsv inputs). "\t" is accepted as an escape.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`

	// MaxBytes caps the decompressed size of one input.
	// Supports suffixes: B, KB, MB, GB (e.g., "64MB", "1GB").
	MaxBytes string `json:"maxBytes,omitempty" yaml:"maxBytes,omitempty"`
}

// WatchConfig configures reload on change.
type WatchConfig struct {
	// MinInterval is the minimum time between reloads.
	// Uses Go duration format (e.g., "250ms", "2s").
	MinInterval string `json:"minInterval,omitempty" yaml:"minInterval,omitempty"`
}

// Mode returns the parsed decoder mode.
func (c DecoderConfig) Mode() (decoder.Mode, error) {
	return decoder.ParseMode(c.Format)
}

// DelimiterRune returns the cell separator, or 0 for the default.
func (c DecoderConfig) DelimiterRune() (rune, error) {
	d := c.Delimiter
	if d == `\t` {
		d = "\t"
	}
	if d == "" {
		if strings.EqualFold(c.Format, "tsv") {
			return '\t', nil
		}
		return 0, nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == '\n' || r == '\r' || r == '"' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", c.Delimiter)
	}
	return r, nil
}

// Limit returns the per-input byte cap, or 0 for the default.
func (c DecoderConfig) Limit() (int64, error) {
	if c.MaxBytes == "" {
		return 0, nil
	}
	n, err := ParseBytes(c.MaxBytes)
	if err != nil {
		return 0, fmt.Errorf("invalid maxBytes: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid maxBytes: must be positive")
	}
	return int64(n), nil
}

// Interval returns the parsed reload interval, or 0 for the default.
func (c WatchConfig) Interval() (time.Duration, error) {
	if c.MinInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.MinInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid minInterval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid minInterval: must be positive")
	}
	return d, nil
}

// Validate checks the semantics of c. All problems are reported together,
// each wrapped with ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	for i, cl := range c.Clauses {
		if _, err := filter.ParseOperator(string(cl.Operator)); err != nil {
			errs = append(errs, fmt.Errorf("filters[%d]: %w", i, err))
		}
		if cl.Relation != "" && cl.Relation != filter.And && cl.Relation != filter.Or {
			errs = append(errs, fmt.Errorf("filters[%d]: %w: %q", i, filter.ErrInvalidRelation, cl.Relation))
		}
	}
	if _, err := filter.ParseDirection(string(c.Direction)); err != nil {
		errs = append(errs, err)
	}
	if c.FieldDepth < 0 {
		errs = append(errs, fmt.Errorf("fieldDepth %d is negative", c.FieldDepth))
	}
	if _, err := c.Decoder.Mode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Decoder.DelimiterRune(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Decoder.Limit(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Watch.Interval(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Clauses = slices.Clone(c.Clauses)
	if c.Trace != nil {
		t := *c.Trace
		out.Trace = &t
	}
	return &out
}

// NextClauseID returns an id larger than every clause id in c, based on
// the current time in milliseconds.
func (c *Config) NextClauseID(now time.Time) int64 {
	id := now.UnixMilli()
	for _, cl := range c.Clauses {
		if cl.ID >= id {
			id = cl.ID + 1
		}
	}
	return id
}

// ParseBytes parses a byte size string with optional suffix (B, KB, MB, GB).
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	s = strings.ToUpper(s)

	var multiplier uint64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	numStr = strings.TrimSpace(numStr)
	n, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return n * multiplier, nil
}
