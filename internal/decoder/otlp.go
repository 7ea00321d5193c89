package decoder

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"google.golang.org/protobuf/encoding/protojson"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"loglens/internal/digester/timestamp"
	"loglens/internal/record"
	"loglens/internal/value"
)

var otlpUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

// decodeOTLP decodes an OTLP/JSON ExportLogsServiceRequest. Each log
// record becomes a Structured record with the correlation fields the
// trace view expects (trace_id, span_id, literal "service.name").
func decodeOTLP(data []byte) (*Result, error) {
	req := &collogspb.ExportLogsServiceRequest{}
	if err := otlpUnmarshal.Unmarshal(hexIDsToBase64(data), req); err != nil {
		return nil, fmt.Errorf("%w: otlp: %v", ErrMalformedDocument, err)
	}

	res := &Result{}
	for _, rl := range req.GetResourceLogs() {
		resourceAttrs := kvListToMap(rl.GetResource().GetAttributes())
		for _, sl := range rl.GetScopeLogs() {
			scope := sl.GetScope().GetName()
			for _, lr := range sl.GetLogRecords() {
				res.Records = append(res.Records, otlpRecord(lr, resourceAttrs, scope))
			}
		}
	}
	return res, nil
}

// hexIDLen is the hex length of a 16-byte trace id and an 8-byte span id.
var hexIDLen = map[string]int{"traceId": 32, "trace_id": 32, "spanId": 16, "span_id": 16}

// hexIDsToBase64 rewrites hex-encoded traceId/spanId strings, as OTLP/JSON
// exporters write them, into the base64 form the protobuf JSON mapping
// expects for bytes fields. Only strings of exactly the hex id length are
// rewritten; base64 ids that happen to be valid hex keep their meaning.
// Unparseable input is returned as is for protojson to reject.
func hexIDsToBase64(data []byte) []byte {
	p := parserPool.Get()
	defer parserPool.Put(p)

	root, err := p.ParseBytes(data)
	if err != nil {
		return data
	}
	var arena fastjson.Arena
	changed := false
	for _, rl := range eitherArray(root, "resourceLogs", "resource_logs") {
		for _, sl := range eitherArray(rl, "scopeLogs", "scope_logs") {
			for _, lr := range eitherArray(sl, "logRecords", "log_records") {
				for key, n := range hexIDLen {
					s := lr.GetStringBytes(key)
					if len(s) != n {
						continue
					}
					b, err := hex.DecodeString(string(s))
					if err != nil {
						continue
					}
					lr.Set(key, arena.NewString(base64.StdEncoding.EncodeToString(b)))
					changed = true
				}
			}
		}
	}
	if !changed {
		return data
	}
	return root.MarshalTo(nil)
}

func eitherArray(v *fastjson.Value, keys ...string) []*fastjson.Value {
	for _, k := range keys {
		if arr := v.GetArray(k); arr != nil {
			return arr
		}
	}
	return nil
}

func otlpRecord(lr *logspb.LogRecord, resourceAttrs value.Map, scope string) record.Record {
	fields := make(value.Map, len(resourceAttrs)+len(lr.GetAttributes())+8)
	for k, v := range resourceAttrs {
		fields[k] = v
	}
	for k, v := range kvListToMap(lr.GetAttributes()) {
		fields[k] = v
	}
	if scope != "" {
		fields["scope"] = value.Text(scope)
	}

	switch {
	case lr.GetTimeUnixNano() != 0:
		fields["timestamp"] = value.Text(timestamp.Format(time.Unix(0, int64(lr.GetTimeUnixNano())))) //nolint:gosec // G115: nanosecond timestamps fit int64
	case lr.GetObservedTimeUnixNano() != 0:
		fields["timestamp"] = value.Text(timestamp.Format(time.Unix(0, int64(lr.GetObservedTimeUnixNano())))) //nolint:gosec // G115: nanosecond timestamps fit int64
	}
	if lvl := severity(lr); lvl != "" {
		fields["level"] = value.Text(lvl)
	}
	if body := lr.GetBody(); body != nil {
		fields["message"] = anyValue(body)
	}
	if len(lr.GetTraceId()) > 0 {
		fields["trace_id"] = value.Text(hex.EncodeToString(lr.GetTraceId()))
	}
	if len(lr.GetSpanId()) > 0 {
		fields["span_id"] = value.Text(hex.EncodeToString(lr.GetSpanId()))
	}
	return record.Structured{Fields: fields}
}

// severity prefers the severity text and otherwise maps the number range
// onto the usual level names.
func severity(lr *logspb.LogRecord) string {
	if s := lr.GetSeverityText(); s != "" {
		return strings.ToLower(s)
	}
	n := lr.GetSeverityNumber()
	switch {
	case n == logspb.SeverityNumber_SEVERITY_NUMBER_UNSPECIFIED:
		return ""
	case n <= logspb.SeverityNumber_SEVERITY_NUMBER_TRACE4:
		return "trace"
	case n <= logspb.SeverityNumber_SEVERITY_NUMBER_DEBUG4:
		return "debug"
	case n <= logspb.SeverityNumber_SEVERITY_NUMBER_INFO4:
		return "info"
	case n <= logspb.SeverityNumber_SEVERITY_NUMBER_WARN4:
		return "warn"
	case n <= logspb.SeverityNumber_SEVERITY_NUMBER_ERROR4:
		return "error"
	default:
		return "fatal"
	}
}

func kvListToMap(kvs []*commonpb.KeyValue) value.Map {
	m := make(value.Map, len(kvs))
	for _, kv := range kvs {
		m[kv.GetKey()] = anyValue(kv.GetValue())
	}
	return m
}

// anyValue converts an OTLP AnyValue to a value tree. Bytes are hex
// encoded, matching how trace and span ids are rendered.
func anyValue(v *commonpb.AnyValue) value.Value {
	if v == nil {
		return value.Null{}
	}
	switch x := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return value.Text(x.StringValue)
	case *commonpb.AnyValue_IntValue:
		return value.Number(float64(x.IntValue))
	case *commonpb.AnyValue_DoubleValue:
		return value.Number(x.DoubleValue)
	case *commonpb.AnyValue_BoolValue:
		return value.Bool(x.BoolValue)
	case *commonpb.AnyValue_BytesValue:
		return value.Text(hex.EncodeToString(x.BytesValue))
	case *commonpb.AnyValue_ArrayValue:
		vals := x.ArrayValue.GetValues()
		out := make(value.List, len(vals))
		for i, e := range vals {
			out[i] = anyValue(e)
		}
		return out
	case *commonpb.AnyValue_KvlistValue:
		return kvListToMap(x.KvlistValue.GetValues())
	default:
		return value.Null{}
	}
}
