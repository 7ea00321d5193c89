// Package logging provides utilities for structured logging across loglens.
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component owns its own scoped logger
//   - Logger scoping happens once at construction time
//   - slog.With() is used to attach default attributes
//   - If no logger is provided, a discard logger is used
//
// Global configuration (output format, level, destination) belongs only in main().
// Components must never call slog.SetDefault or access global loggers.
//
// Logging is intentionally sparse:
//   - No logging inside tight loops (per-line decoding, per-clause matching)
//   - Lifecycle boundaries are the intended log points
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
// Use this as a default when no logger is provided.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise returns a discard logger.
// This is the standard pattern for optional logger parameters:
//
//	func NewComponent(logger *slog.Logger) *Component {
//	    logger = logging.Default(logger)
//	    return &Component{logger: logger.With("component", "name")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// levels is the state shared by a ComponentFilterHandler and its clones.
type levels struct {
	mu       sync.RWMutex
	def      slog.Level
	override map[string]slog.Level
}

func (l *levels) get(component string) slog.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if lvl, ok := l.override[component]; ok {
		return lvl
	}
	return l.def
}

// min returns the lowest level any component may log at.
func (l *levels) min() slog.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.def
	for _, lvl := range l.override {
		if lvl < m {
			m = lvl
		}
	}
	return m
}

// ComponentFilterHandler filters records by level per "component"
// attribute. Components without an override use the default level.
// Levels can be changed at runtime; clones made by WithAttrs and
// WithGroup share the same level table.
type ComponentFilterHandler struct {
	next      slog.Handler
	levels    *levels
	component string
}

// NewComponentFilterHandler wraps next with per-component filtering.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next:   next,
		levels: &levels{def: defaultLevel, override: make(map[string]slog.Level)},
	}
}

// SetLevel overrides the level of one component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.levels.mu.Lock()
	defer h.levels.mu.Unlock()
	h.levels.override[component] = level
}

// ClearLevel removes a component override.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.levels.mu.Lock()
	defer h.levels.mu.Unlock()
	delete(h.levels.override, component)
}

// Level returns the effective level of a component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	return h.levels.get(component)
}

// DefaultLevel returns the level used by components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	return h.levels.def
}

func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.component != "" {
		return level >= h.levels.get(h.component)
	}
	return level >= h.levels.min()
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "component" {
				component = a.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < h.levels.get(component) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		if a.Key == "component" {
			clone.component = a.Value.String()
		}
	}
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}

// Options configures New.
type Options struct {
	// Format is "text" (default) or "json".
	Format string

	// Levels is a level spec as accepted by ParseLevels. Empty means info.
	Levels string
}

// New builds the process logger writing to w. It is meant to be called
// once, from main.
func New(w io.Writer, opts Options) (*slog.Logger, *ComponentFilterHandler, error) {
	def, overrides, err := ParseLevels(opts.Levels)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var base slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		base = slog.NewTextHandler(w, hopts)
	case "json":
		base = slog.NewJSONHandler(w, hopts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	filter := NewComponentFilterHandler(base, def)
	for c, lvl := range overrides {
		filter.SetLevel(c, lvl)
	}
	return slog.New(filter), filter, nil
}

// ParseLevels parses a level spec: a comma-separated list of a default
// level and component=level overrides, e.g. "warn,decoder=debug".
func ParseLevels(spec string) (slog.Level, map[string]slog.Level, error) {
	def := slog.LevelInfo
	overrides := make(map[string]slog.Level)
	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		component, name, found := strings.Cut(part, "=")
		if !found {
			name = component
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
			return 0, nil, fmt.Errorf("log level %q: %w", part, err)
		}
		if found {
			overrides[strings.TrimSpace(component)] = lvl
		} else {
			def = lvl
		}
	}
	return def, overrides, nil
}
