package transform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"loglens/internal/record"
	"loglens/internal/value"
)

const upperScript = `
import "strings"

func Transform(records []interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(records))
	for _, r := range records {
		switch v := r.(type) {
		case string:
			out = append(out, strings.ToUpper(v))
		case map[string]interface{}:
			v["seen"] = true
			out = append(out, v)
		}
	}
	return out, nil
}
`

func TestYaegiExecute(t *testing.T) {
	y := NewYaegi(YaegiConfig{})
	in := []record.Record{
		record.PlainText("hello"),
		record.Structured{Fields: value.Map{"n": value.Number(1)}},
	}
	out, err := y.Execute(context.Background(), in, upperScript)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var got []string
	for _, r := range out {
		got = append(got, record.String(r))
	}
	want := []string{"HELLO", `{"n":1,"seen":true}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestYaegiErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   error
	}{
		{
			name: "forbidden import",
			script: `import "os"

func Transform(records []interface{}) ([]interface{}, error) { os.Exit(1); return nil, nil }`,
			want: ErrForbiddenImport,
		},
		{
			name:   "missing entry point",
			script: `func Other() {}`,
			want:   ErrMissingEntryPoint,
		},
		{
			name:   "wrong signature",
			script: `func Transform(s string) string { return s }`,
			want:   ErrMissingEntryPoint,
		},
		{
			name: "invalid element",
			script: `func Transform(records []interface{}) ([]interface{}, error) {
	return []interface{}{"ok", 42}, nil
}`,
			want: ErrInvalidResult,
		},
		{
			name: "nil result",
			script: `func Transform(records []interface{}) ([]interface{}, error) {
	return nil, nil
}`,
			want: ErrInvalidResult,
		},
	}
	y := NewYaegi(YaegiConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := y.Execute(context.Background(), []record.Record{record.PlainText("x")}, tt.script)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if out != nil {
				t.Errorf("expected no records on failure, got %v", out)
			}
		})
	}
}

func TestYaegiScriptError(t *testing.T) {
	script := `import "errors"

func Transform(records []interface{}) ([]interface{}, error) {
	return nil, errors.New("bad input")
}`
	_, err := NewYaegi(YaegiConfig{}).Execute(context.Background(), nil, script)
	if err == nil || err.Error() != "transform script: bad input" {
		t.Errorf("error = %v", err)
	}
}

func TestYaegiTimeout(t *testing.T) {
	script := `import "time"

func Transform(records []interface{}) ([]interface{}, error) {
	time.Sleep(5 * time.Second)
	return records, nil
}`
	y := NewYaegi(YaegiConfig{Timeout: 50 * time.Millisecond})
	_, err := y.Execute(context.Background(), nil, script)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

func TestExecutorFunc(t *testing.T) {
	var e Executor = ExecutorFunc(func(_ context.Context, records []record.Record, _ string) ([]record.Record, error) {
		return records[:1], nil
	})
	out, err := e.Execute(context.Background(), []record.Record{record.PlainText("a"), record.PlainText("b")}, "")
	if err != nil || len(out) != 1 {
		t.Errorf("Execute = %v, %v", out, err)
	}
}
