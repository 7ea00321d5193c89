// Package trace correlates records that carry distributed-tracing
// identifiers and summarizes them as a service graph.
//
// Field names are auto-detected from fixed candidate lists. Each
// candidate is also tried under the container prefixes log shippers wrap
// events in (see fieldpath.ContainerPrefixes).
package trace

import (
	"loglens/internal/fieldpath"
	"loglens/internal/record"
	"loglens/internal/value"
)

// Candidate field names per role, in priority order.
var (
	TraceIDCandidates      = []string{"traceId", "trace_id", "traceID", "trace-id", "x-trace-id", "requestId", "request_id", "correlationId", "correlation_id"}
	SpanIDCandidates       = []string{"spanId", "span_id", "spanID", "span-id"}
	ParentSpanIDCandidates = []string{"parentSpanId", "parent_span_id", "parentId", "parent_id", "parentSpanID"}
	ServiceNameCandidates  = []string{"serviceName", "service", "service.name", "service_name", "app", "application"}
)

// Fallback field names used when detection finds nothing.
const (
	DefaultTraceIDField      = "trace_id"
	DefaultSpanIDField       = "span_id"
	DefaultParentSpanIDField = "parent_span_id"
	DefaultServiceNameField  = "service"
)

// UnknownService names the node for records without a service.
const UnknownService = "unknown"

// Config names the field holding each tracing role.
type Config struct {
	TraceIDField      string `json:"traceIdField" yaml:"traceIdField"`
	SpanIDField       string `json:"spanIdField" yaml:"spanIdField"`
	ParentSpanIDField string `json:"parentSpanIdField" yaml:"parentSpanIdField"`
	ServiceNameField  string `json:"serviceNameField" yaml:"serviceNameField"`
}

// DefaultConfig returns the fallback field names.
func DefaultConfig() Config {
	return Config{
		TraceIDField:      DefaultTraceIDField,
		SpanIDField:       DefaultSpanIDField,
		ParentSpanIDField: DefaultParentSpanIDField,
		ServiceNameField:  DefaultServiceNameField,
	}
}

// Merge returns c with every empty field taken from base.
func (c Config) Merge(base Config) Config {
	if c.TraceIDField == "" {
		c.TraceIDField = base.TraceIDField
	}
	if c.SpanIDField == "" {
		c.SpanIDField = base.SpanIDField
	}
	if c.ParentSpanIDField == "" {
		c.ParentSpanIDField = base.ParentSpanIDField
	}
	if c.ServiceNameField == "" {
		c.ServiceNameField = base.ServiceNameField
	}
	return c
}

// role is one tracing field: the configured path plus the candidate
// paths retried per record when the configured one yields nothing.
type role struct {
	configured fieldpath.Path
	fallback   []fieldpath.Path
}

var (
	traceIDPaths      = compileAll(fieldpath.WithContainers(TraceIDCandidates))
	spanIDPaths       = compileAll(fieldpath.WithContainers(SpanIDCandidates))
	parentSpanIDPaths = compileAll(fieldpath.WithContainers(ParentSpanIDCandidates))
	serviceNamePaths  = compileAll(fieldpath.WithContainers(ServiceNameCandidates))
)

func compileAll(paths []string) []fieldpath.Path {
	out := make([]fieldpath.Path, len(paths))
	for i, p := range paths {
		out[i] = fieldpath.Compile(p)
	}
	return out
}

// DetectConfig picks, for each role, the first candidate path with a
// non-empty value. Records are scanned in order and candidates in
// priority order within each record, so the earliest record carrying any
// candidate decides. Plain-text records are skipped.
func DetectConfig(records []record.Record) Config {
	return Config{
		TraceIDField:      detect(records, traceIDPaths, DefaultTraceIDField),
		SpanIDField:       detect(records, spanIDPaths, DefaultSpanIDField),
		ParentSpanIDField: detect(records, parentSpanIDPaths, DefaultParentSpanIDField),
		ServiceNameField:  detect(records, serviceNamePaths, DefaultServiceNameField),
	}
}

func detect(records []record.Record, candidates []fieldpath.Path, fallback string) string {
	for _, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		for _, p := range candidates {
			if v, ok := p.Resolve(s.Fields); ok && present(v) {
				return p.String()
			}
		}
	}
	return fallback
}

// present reports whether v counts as a value: not null and not empty
// text.
func present(v value.Value) bool {
	switch x := v.(type) {
	case nil, value.Null:
		return false
	case value.Text:
		return x != ""
	default:
		return true
	}
}

// resolver reads the tracing roles of records under one Config.
type resolver struct {
	traceID, spanID, parentSpanID, service role
}

func newResolver(cfg Config) *resolver {
	cfg = cfg.Merge(DefaultConfig())
	return &resolver{
		traceID:      role{fieldpath.Compile(cfg.TraceIDField), traceIDPaths},
		spanID:       role{fieldpath.Compile(cfg.SpanIDField), spanIDPaths},
		parentSpanID: role{fieldpath.Compile(cfg.ParentSpanIDField), parentSpanIDPaths},
		service:      role{fieldpath.Compile(cfg.ServiceNameField), serviceNamePaths},
	}
}

// id returns the flattened value of an identifier role, or "".
func (rl role) id(fields value.Map) string {
	if v, ok := rl.configured.Resolve(fields); ok && present(v) {
		return value.String(v)
	}
	for _, p := range rl.fallback {
		if v, ok := p.Resolve(fields); ok && present(v) {
			return value.String(v)
		}
	}
	return ""
}

// name returns the service name of fields, or "".
func (rl role) name(fields value.Map) string {
	if v, ok := rl.configured.Resolve(fields); ok {
		if s := serviceName(v); s != "" {
			return s
		}
	}
	for _, p := range rl.fallback {
		if v, ok := p.Resolve(fields); ok {
			if s := serviceName(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// serviceName flattens a service value. Maps yield their string "name"
// entry; other structures yield nothing.
func serviceName(v value.Value) string {
	switch x := v.(type) {
	case nil, value.Null:
		return ""
	case value.Map:
		if n, ok := x["name"].(value.Text); ok {
			return string(n)
		}
		return ""
	case value.List:
		return ""
	default:
		return value.String(x)
	}
}
