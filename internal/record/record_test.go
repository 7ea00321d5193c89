package record

import (
	"encoding/json"
	"testing"

	"loglens/internal/value"
)

func TestFromValue(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want Record
	}{
		{"map", value.Map{"a": value.Number(1)}, Structured{Fields: value.Map{"a": value.Number(1)}}},
		{"text", value.Text("hello"), PlainText("hello")},
		{"number", value.Number(42), PlainText("42")},
		{"list", value.List{value.Bool(true)}, PlainText("[true]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromValue(tt.in)
			if isPlain(got) != isPlain(tt.want) {
				t.Fatalf("variant mismatch: got %T, want %T", got, tt.want)
			}
			if String(got) != String(tt.want) {
				t.Errorf("FromValue = %q, want %q", String(got), String(tt.want))
			}
		})
	}
}

func isPlain(r Record) bool {
	_, ok := r.(PlainText)
	return ok
}

func TestFromAny(t *testing.T) {
	r, err := FromAny(map[string]any{"level": "info"})
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	s, ok := r.(Structured)
	if !ok {
		t.Fatalf("expected Structured, got %T", r)
	}
	if s.Fields["level"] != value.Text("info") {
		t.Errorf("level = %v", s.Fields["level"])
	}

	r, err = FromAny("plain line")
	if err != nil {
		t.Fatalf("FromAny string: %v", err)
	}
	if r != PlainText("plain line") {
		t.Errorf("got %#v", r)
	}

	if _, err := FromAny(12); err == nil {
		t.Error("expected error for a bare number")
	}
}

func TestStructuredMarshalJSON(t *testing.T) {
	rec := Structured{Fields: value.Map{"b": value.Null{}, "a": value.List{value.Number(1)}}}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(b), `{"a":[1],"b":null}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	b, err = json.Marshal(Structured{})
	if err != nil {
		t.Fatalf("Marshal empty: %v", err)
	}
	if string(b) != "{}" {
		t.Errorf("Marshal empty = %s", b)
	}
}

func TestNewDataset(t *testing.T) {
	a := NewDataset([]Record{PlainText("x")})
	b := NewDataset(nil)
	if a.ID == b.ID {
		t.Error("datasets should get distinct IDs")
	}
	if a.Len() != 1 || b.Len() != 0 {
		t.Errorf("Len = %d, %d", a.Len(), b.Len())
	}
	var nilDS *Dataset
	if nilDS.Len() != 0 {
		t.Error("nil dataset should have length 0")
	}
}
