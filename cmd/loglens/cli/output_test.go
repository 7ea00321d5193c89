package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"

	"loglens/internal/record"
	"loglens/internal/value"
)

func TestNewPrinterRejectsUnknownFormat(t *testing.T) {
	if _, err := newPrinter("xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPrinterRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter("table", &buf)
	if err != nil {
		t.Fatal(err)
	}
	recs := []record.Record{
		record.Structured{Fields: value.Map{"level": value.Text("error"), "timestamp": value.Number(1700000000), "msg": value.Text("boom")}},
		record.PlainText("plain line"),
	}
	if err := p.records([]int{4, 0}, recs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "#") {
		t.Errorf("header = %q", lines[0])
	}
	if f := strings.Fields(lines[1]); f[0] != "5" || f[1] != "error" || f[2] != "2023-11-14T22:13:20.000Z" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "plain line") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestPrinterRecordsConfiguredFields(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("table", &buf)
	p.levelField = "sev"
	p.timestampField = "at"
	recs := []record.Record{
		record.Structured{Fields: value.Map{
			"level":     value.Text("info"),
			"sev":       value.Text("WARNING"),
			"timestamp": value.Text("2024-05-01T00:00:00Z"),
			"at":        value.Number(1700000000),
		}},
	}
	if err := p.records(nil, recs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if f := strings.Fields(lines[1]); f[1] != "warn" || f[2] != "2023-11-14T22:13:20.000Z" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestPrinterRecordsNDJSON(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("ndjson", &buf)
	recs := []record.Record{
		record.Structured{Fields: value.Map{"a": value.Text("<b>")}},
		record.PlainText("x"),
	}
	if err := p.records(nil, recs); err != nil {
		t.Fatal(err)
	}
	want := "{\"a\":\"<b>\"}\n\"x\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPrinterRecordsMsgpack(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("msgpack", &buf)
	recs := []record.Record{
		record.Structured{Fields: value.Map{"n": value.Number(2), "s": value.Text("v")}},
		record.PlainText("line"),
	}
	if err := p.records(nil, recs); err != nil {
		t.Fatal(err)
	}
	var got []any
	if err := msgpack.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []any{map[string]any{"n": 2.0, "s": "v"}, "line"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordTime(t *testing.T) {
	both := record.Structured{Fields: value.Map{
		"created_at": value.Text("2020-01-01T00:00:00Z"),
		"timestamp":  value.Text("2024-05-01T00:00:00Z"),
	}}
	tests := []struct {
		name  string
		rec   record.Record
		field string
		want  string
	}{
		{"plain", record.PlainText("x"), "", ""},
		{"no column", record.Structured{Fields: value.Map{"msg": value.Text("x")}}, "", ""},
		{"iso kept", record.Structured{Fields: value.Map{"time": value.Text("2024-01-02T03:04:05Z")}}, "", "2024-01-02T03:04:05Z"},
		{"epoch millis", record.Structured{Fields: value.Map{"@timestamp": value.Number(1700000000000)}}, "", "2023-11-14T22:13:20.000Z"},
		{"timestamp before created_at", both, "", "2024-05-01T00:00:00Z"},
		{"configured field", both, "created_at", "2020-01-01T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordTime(tt.rec, tt.field); got != tt.want {
				t.Errorf("recordTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("a\nb", 10); got != "a b" {
		t.Errorf("truncate newline = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
}
