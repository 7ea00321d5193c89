package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"loglens/internal/trace"
)

const appLog = `{"level":"info","service":"api","trace_id":"t1","span_id":"s1","msg":"request"}
{"level":"error","service":"db","trace_id":"t1","span_id":"s2","parent_span_id":"s1","msg":"timeout"}
{"level":"warn","service":"db","trace_id":"t2","span_id":"s3","msg":"slow query"}
`

// run executes the root command against a fresh home directory and
// returns its standard output.
func run(t *testing.T, home string, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(logLevelEnv, "")
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--home", home}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSummary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog+"{broken\n")

	out, err := run(t, dir, "", "load", "-o", "json", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var got loadSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if got.Mode != "ndjson" || got.Records != 4 || len(got.Errors) != 1 {
		t.Errorf("summary = %+v", got)
	}
	want := map[string]int{"info": 1, "error": 1, "warn": 1, "-": 1}
	if diff := cmp.Diff(want, got.Levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStdin(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, appLog, "load", "-")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(out, "3 records loaded\n") {
		t.Errorf("output = %q", out)
	}
}

func TestFilterWhere(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)

	out, err := run(t, dir, "", "filter", "-o", "json", "--where", "service:equals:db", "--order-by", "msg", "--desc", path)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var msgs []string
	for _, r := range got {
		msgs = append(msgs, r["msg"].(string))
	}
	if diff := cmp.Diff([]string{"timeout", "slow query"}, msgs); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterSaveAndReuse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)

	if _, err := run(t, dir, "", "filter", "--where", "level:equals:warn", "--save", path); err != nil {
		t.Fatalf("filter --save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("settings not written: %v", err)
	}

	out, err := run(t, dir, "", "filter", "-o", "ndjson", path)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, "slow query") {
		t.Errorf("saved query not applied: %q", out)
	}

	if _, err := run(t, dir, "", "config", "reset-query"); err != nil {
		t.Fatalf("reset-query: %v", err)
	}
	out, err = run(t, dir, "", "filter", "-o", "ndjson", path)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("got %d records after reset, want 3", n)
	}
}

func TestFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", `{"a":{"b":1},"c":2}`+"\n")

	out, err := run(t, dir, "", "fields", "-o", "json", path)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var got []string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "a.b", "c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceGraph(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)

	out, err := run(t, dir, "", "trace", "-o", "json", path)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	var got traceReport
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	wantCfg := trace.Config{TraceIDField: "trace_id", SpanIDField: "span_id", ParentSpanIDField: "parent_span_id", ServiceNameField: "service"}
	if diff := cmp.Diff(wantCfg, got.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	wantEdges := []trace.ServiceEdge{{ID: "api->db", Source: "api", Target: "db", RequestCount: 1}}
	if diff := cmp.Diff(wantEdges, got.Graph.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if len(got.Graph.Nodes) != 2 || !got.Graph.Nodes[1].HasErrors || !got.Graph.Nodes[1].HasWarnings {
		t.Errorf("nodes = %+v", got.Graph.Nodes)
	}
}

func TestTraceList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)

	out, err := run(t, dir, "", "trace", "--list", "-o", "json", path)
	if err != nil {
		t.Fatalf("trace --list: %v", err)
	}
	var got []trace.Summary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []trace.Summary{{ID: "t1", Count: 2}, {ID: "t2", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformScript(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)
	script := writeFile(t, dir, "drop_info.go", `
func Transform(records []interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(records))
	for _, r := range records {
		if m, ok := r.(map[string]interface{}); ok {
			if lvl, _ := m["level"].(string); lvl == "info" {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}
`)

	out, err := run(t, dir, "", "transform", "--script", script, "-o", "ndjson", path)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 2 || strings.Contains(out, `"request"`) {
		t.Errorf("output = %q", out)
	}
}

func TestInvalidFormatFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", appLog)
	if _, err := run(t, dir, "", "--format", "xml", "load", path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if want := filepath.Join(dir, "config.json") + "\n"; out != want {
		t.Errorf("path = %q, want %q", out, want)
	}
}

func TestLevelAndTimestampFieldFlags(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.ndjson", `{"level":"info","sev":"error","timestamp":"2024-05-01T00:00:00Z","created_at":"2020-01-01T00:00:00Z"}
{"level":"info","sev":"warn"}
{"level":"debug"}
`)

	out, err := run(t, dir, "", "--level-field", "sev", "load", "-o", "json", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var got loadSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	want := map[string]int{"error": 1, "warn": 1, "debug": 1}
	if diff := cmp.Diff(want, got.Levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}

	for _, tt := range []struct {
		args []string
		want string
	}{
		{[]string{"filter", path}, "2024-05-01T00:00:00Z"},
		{[]string{"--timestamp-field", "created_at", "filter", path}, "2020-01-01T00:00:00Z"},
	} {
		out, err := run(t, dir, "", tt.args...)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		lines := strings.Split(out, "\n")
		if len(lines) < 2 {
			t.Fatalf("short output:\n%s", out)
		}
		if f := strings.Fields(lines[1]); len(f) < 3 || f[2] != tt.want {
			t.Errorf("%v: first row = %q, want time %s", tt.args, lines[1], tt.want)
		}
	}
}
