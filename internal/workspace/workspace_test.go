package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"loglens/internal/callgroup"
	"loglens/internal/decoder"
	"loglens/internal/filter"
	"loglens/internal/record"
	"loglens/internal/trace"
	"loglens/internal/transform"
)

const sampleNDJSON = `{"level":"info","service":"api","spanId":"s1","msg":"start"}
{"level":"error","service":"db","parentSpanId":"s1","msg":"timeout"}
plain text line
{"level":"warn","service":"db","parentSpanId":"s1","msg":"retry"}
{"level":"info","service":"api","msg":"done"}
`

func loaded(t *testing.T) *Workspace {
	t.Helper()
	res, err := decoder.Decode([]byte(sampleNDJSON), decoder.Options{Mode: decoder.ModeNDJSON})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w := New(Config{})
	w.Load(res)
	return w
}

func TestRefresh(t *testing.T) {
	w := loaded(t)
	if w.View() != nil {
		t.Fatal("expected no view before Refresh")
	}

	w.SetFilters([]filter.Clause{{Field: "service", Operator: filter.Equals, Value: "db"}})
	w.SetOrder("msg", filter.Asc)
	v, err := w.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if diff := cmp.Diff([]int{3, 1}, v.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if v.Total != 5 {
		t.Errorf("Total = %d, want 5", v.Total)
	}
	if got := w.View(); got == nil || len(got.Indices) != 2 {
		t.Errorf("published view = %+v", got)
	}

	w.SetSearch("RETRY")
	v, err = w.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3}, v.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshConcurrentPublishesOneView(t *testing.T) {
	w := loaded(t)
	var wg sync.WaitGroup
	for _, term := range []string{"start", "timeout", "retry", "done"} {
		wg.Go(func() {
			w.SetSearch(term)
			_, err := w.Refresh(context.Background())
			if err != nil && !errors.Is(err, callgroup.ErrSuperseded) {
				t.Errorf("Refresh: %v", err)
			}
		})
	}
	wg.Wait()

	// A final refresh always publishes the current query.
	v, err := w.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := w.View(); got.Query.Search != v.Query.Search || len(got.Indices) != 1 {
		t.Errorf("published view = %+v", got)
	}
}

func TestRefreshCancelled(t *testing.T) {
	w := loaded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if w.View() != nil {
		t.Error("cancelled refresh published a view")
	}
}

func TestTraceConfigAndGraph(t *testing.T) {
	w := loaded(t)
	ctx := context.Background()

	cfg, err := w.TraceConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := trace.Config{
		TraceIDField:      trace.DefaultTraceIDField,
		SpanIDField:       "spanId",
		ParentSpanIDField: "parentSpanId",
		ServiceNameField:  "service",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	w.SetTraceOverride(&trace.Config{TraceIDField: "msg"})
	cfg, err = w.TraceConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TraceIDField != "msg" || cfg.SpanIDField != "spanId" {
		t.Errorf("override not merged: %+v", cfg)
	}

	g, err := w.TraceGraph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantGraph := trace.Graph{
		Nodes: []trace.ServiceNode{
			{ID: "api", LogCount: 2},
			{ID: "db", LogCount: 2, HasErrors: true, HasWarnings: true},
		},
		Edges: []trace.ServiceEdge{{ID: "api->db", Source: "api", Target: "db", RequestCount: 2}},
	}
	if diff := cmp.Diff(wantGraph, g); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestFields(t *testing.T) {
	w := loaded(t)
	want := []string{"level", "msg", "parentSpanId", "service", "spanId"}
	if diff := cmp.Diff(want, w.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform(t *testing.T) {
	w := loaded(t)
	before := w.Dataset()

	onlyPlain := transform.ExecutorFunc(func(_ context.Context, records []record.Record, _ string) ([]record.Record, error) {
		var out []record.Record
		for _, r := range records {
			if _, ok := r.(record.PlainText); ok {
				out = append(out, r)
			}
		}
		return out, nil
	})
	v, err := w.Transform(context.Background(), onlyPlain, "")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if v.Total != 1 || w.Dataset().ID == before.ID {
		t.Errorf("dataset not replaced: view %+v", v)
	}

	failing := transform.ExecutorFunc(func(context.Context, []record.Record, string) ([]record.Record, error) {
		return nil, transform.ErrInvalidResult
	})
	current := w.Dataset()
	if _, err := w.Transform(context.Background(), failing, ""); !errors.Is(err, transform.ErrInvalidResult) {
		t.Fatalf("error = %v, want ErrInvalidResult", err)
	}
	if w.Dataset() != current {
		t.Error("failed transform replaced the dataset")
	}
}

func TestTransformDatasetChanged(t *testing.T) {
	w := loaded(t)
	reload := transform.ExecutorFunc(func(_ context.Context, records []record.Record, _ string) ([]record.Record, error) {
		w.Load(&decoder.Result{Records: []record.Record{record.PlainText("new")}})
		return records, nil
	})
	if _, err := w.Transform(context.Background(), reload, ""); !errors.Is(err, ErrDatasetChanged) {
		t.Errorf("error = %v, want ErrDatasetChanged", err)
	}
	if w.Dataset().Len() != 1 {
		t.Error("concurrent load was overwritten")
	}
}

func TestSoftErrors(t *testing.T) {
	res, err := decoder.Decode([]byte("{\"a\":1}\n{broken\n"), decoder.Options{Mode: decoder.ModeNDJSON})
	if err != nil {
		t.Fatal(err)
	}
	w := New(Config{})
	w.Load(res)
	if got := w.SoftErrors(); len(got) != 1 || got[0].Line != 2 {
		t.Errorf("SoftErrors = %v", got)
	}
}

func TestRefreshNotifiesChanged(t *testing.T) {
	w := loaded(t)
	seq := w.Changed().Seq()
	ch := w.Changed().C()
	if _, err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	default:
		t.Fatal("Refresh did not notify")
	}
	if got := w.Changed().Seq(); got != seq+1 {
		t.Errorf("Seq = %d, want %d", got, seq+1)
	}
}
