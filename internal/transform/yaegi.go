package transform

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"loglens/internal/logging"
	"loglens/internal/record"
)

// EntryPoint is the function every script must define:
//
//	func Transform(records []interface{}) ([]interface{}, error)
//
// Each input element is a string (plain-text line) or a
// map[string]interface{} (structured record with JSON-shaped values).
// Each output element must be one of the same two shapes.
const EntryPoint = "Transform"

// DefaultAllowedImports are the standard library packages scripts may use.
// Packages with filesystem, process or network access are excluded.
var DefaultAllowedImports = []string{
	"bytes",
	"encoding/base64",
	"encoding/hex",
	"encoding/json",
	"errors",
	"fmt",
	"math",
	"regexp",
	"slices",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf8",
}

// YaegiConfig configures a Yaegi executor.
type YaegiConfig struct {
	// AllowedImports overrides DefaultAllowedImports when non-nil.
	AllowedImports []string

	// Timeout bounds one execution. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration

	Logger *slog.Logger
}

// Yaegi interprets Go transform scripts.
type Yaegi struct {
	allowed map[string]bool
	timeout time.Duration
	logger  *slog.Logger
}

// NewYaegi creates an interpreter-backed executor.
func NewYaegi(cfg YaegiConfig) *Yaegi {
	imports := cfg.AllowedImports
	if imports == nil {
		imports = DefaultAllowedImports
	}
	allowed := make(map[string]bool, len(imports))
	for _, p := range imports {
		allowed[p] = true
	}
	return &Yaegi{
		allowed: allowed,
		timeout: cfg.Timeout,
		logger:  logging.Default(cfg.Logger).With("component", "transform"),
	}
}

// Execute evaluates script in a fresh interpreter and calls its
// Transform function with records. The interpreter goroutine cannot be
// preempted; when ctx ends first, Execute returns ctx's error and the
// abandoned result is discarded.
func (y *Yaegi) Execute(ctx context.Context, records []record.Record, script string) ([]record.Record, error) {
	src := wrap(script)
	if err := y.checkImports(src); err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(y.symbols()); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}
	fnVal, err := i.Eval("main." + EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingEntryPoint, err)
	}
	fn, ok := fnVal.Interface().(func([]interface{}) ([]interface{}, error))
	if !ok {
		return nil, fmt.Errorf("%w: want func([]interface{}) ([]interface{}, error), got %s",
			ErrMissingEntryPoint, fnVal.Type())
	}

	in := make([]interface{}, len(records))
	for idx, r := range records {
		in[idx] = record.ToAny(r)
	}

	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	type result struct {
		out []interface{}
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("script panicked: %v", p)}
			}
		}()
		out, err := fn(in)
		done <- result{out, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("transform aborted: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("transform script: %w", res.err)
	}

	out, err := convert(res.out)
	if err != nil {
		return nil, err
	}
	y.logger.Info("transform applied", "in", len(records), "out", len(out), "elapsed", time.Since(start))
	return out, nil
}

func convert(raw []interface{}) ([]record.Record, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil result", ErrInvalidResult)
	}
	out := make([]record.Record, len(raw))
	for i, x := range raw {
		r, err := record.FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidResult, i, err)
		}
		out[i] = r
	}
	return out, nil
}

// symbols restricts the stdlib export table to the allowed packages.
// Keys have the form "path/to/pkg/name".
func (y *Yaegi) symbols() interp.Exports {
	out := make(interp.Exports)
	for key, syms := range stdlib.Symbols {
		path := key
		if i := strings.LastIndexByte(key, '/'); i >= 0 {
			path = key[:i]
		}
		if y.allowed[path] {
			out[key] = syms
		}
	}
	return out
}

func (y *Yaegi) checkImports(src string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "transform.go", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}
	var forbidden []string
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return fmt.Errorf("parse script import %s: %w", imp.Path.Value, err)
		}
		if !y.allowed[p] {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) > 0 {
		slices.Sort(forbidden)
		return fmt.Errorf("%w: %s", ErrForbiddenImport, strings.Join(forbidden, ", "))
	}
	return nil
}

// wrap adds a package clause when the script has none.
func wrap(script string) string {
	trimmed := strings.TrimSpace(script)
	if strings.HasPrefix(trimmed, "package ") {
		return script
	}
	return "package main\n\n" + script
}
