package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"loglens/internal/record"
	"loglens/internal/value"
)

func strs(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = record.String(r)
	}
	return out
}

func TestSortNatural(t *testing.T) {
	records := []record.Record{
		structured("name", "item10"),
		structured("name", "item2"),
		structured("name", "Item1"),
		structured("other", "x"),
	}
	got := strs(Sort(records, "name", Asc))
	want := []string{`{"other":"x"}`, `{"name":"Item1"}`, `{"name":"item2"}`, `{"name":"item10"}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("asc mismatch (-want +got):\n%s", diff)
	}

	got = strs(Sort(records, "name", Desc))
	want = []string{`{"name":"item10"}`, `{"name":"item2"}`, `{"name":"Item1"}`, `{"other":"x"}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("desc mismatch (-want +got):\n%s", diff)
	}
}

func TestSortPlainTextPlacement(t *testing.T) {
	records := []record.Record{
		structured("n", "1"),
		record.PlainText("b line"),
		structured("n", "0"),
		record.PlainText("a line"),
	}
	got := strs(Sort(records, "n", Asc))
	want := []string{"a line", "b line", `{"n":"0"}`, `{"n":"1"}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("asc mismatch (-want +got):\n%s", diff)
	}

	got = strs(Sort(records, "n", Desc))
	want = []string{`{"n":"1"}`, `{"n":"0"}`, "b line", "a line"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("desc mismatch (-want +got):\n%s", diff)
	}
}

func TestSortNumbersAndStability(t *testing.T) {
	records := []record.Record{
		record.Structured{Fields: value.Map{"ms": value.Number(100), "id": value.Text("a")}},
		record.Structured{Fields: value.Map{"ms": value.Number(9), "id": value.Text("b")}},
		record.Structured{Fields: value.Map{"ms": value.Number(100), "id": value.Text("c")}},
	}
	var ids []string
	for _, r := range Sort(records, "ms", Asc) {
		ids = append(ids, value.String(r.(record.Structured).Fields["id"]))
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSortNoField(t *testing.T) {
	records := []record.Record{record.PlainText("b"), record.PlainText("a")}
	got := Sort(records, "", Asc)
	if diff := cmp.Diff([]string{"b", "a"}, strs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	got[0] = record.PlainText("changed")
	if records[0] != record.PlainText("b") {
		t.Error("Sort must not alias its input")
	}
}

func TestCompare(t *testing.T) {
	a := record.PlainText("zzz")
	b := structured("f", "aaa")
	if Compare(a, b, "f", Asc) >= 0 {
		t.Error("plain text should sort first ascending")
	}
	if Compare(a, b, "f", Desc) <= 0 {
		t.Error("plain text should sort last descending")
	}
	if Compare(structured("f", "ABC"), structured("f", "abc"), "f", Asc) != 0 {
		t.Error("case should be ignored")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("DESC"); err != nil || d != Desc {
		t.Errorf("ParseDirection(DESC) = %q, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error")
	}
}
