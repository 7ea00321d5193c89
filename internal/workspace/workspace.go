// Package workspace is the view model a host drives: the loaded dataset,
// the applied query, and the derived filtered view and trace settings.
//
// Edits (SetFilters, SetOrder, SetSearch) only record intent; Refresh
// recomputes the view. Refreshes may overlap; the most recently started
// one wins and the published view is swapped atomically.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"loglens/internal/callgroup"
	"loglens/internal/decoder"
	"loglens/internal/fieldpath"
	"loglens/internal/filter"
	"loglens/internal/logging"
	"loglens/internal/notify"
	"loglens/internal/record"
	"loglens/internal/trace"
	"loglens/internal/transform"
)

// ErrDatasetChanged is returned by Transform when another load replaced
// the dataset while the script ran.
var ErrDatasetChanged = errors.New("dataset changed during transform")

// View is one computed view of a dataset.
type View struct {
	DatasetID uuid.UUID
	Query     filter.Query

	// Indices are the visible records' positions in the dataset, in
	// display order.
	Indices []int
	Records []record.Record

	// Total is the dataset size before filtering.
	Total int
}

// Config configures a Workspace.
type Config struct {
	// TraceOverride replaces detected trace field names where set.
	TraceOverride *trace.Config

	// FieldDepth limits Fields. 0 means unlimited.
	FieldDepth int

	Logger *slog.Logger
}

// Workspace holds one dataset and its view. It is safe for concurrent use.
type Workspace struct {
	logger     *slog.Logger
	engine     *filter.Engine
	fieldDepth int

	mu            sync.Mutex
	dataset       *record.Dataset
	softErrors    []decoder.SoftError
	query         filter.Query
	traceOverride *trace.Config
	traceCache    map[uuid.UUID]trace.Config

	view     callgroup.Latest[View]
	detector callgroup.Group[uuid.UUID, trace.Config]
	changed  *notify.Signal
}

// New creates an empty workspace.
func New(cfg Config) *Workspace {
	logger := logging.Default(cfg.Logger)
	var override *trace.Config
	if cfg.TraceOverride != nil {
		o := *cfg.TraceOverride
		override = &o
	}
	return &Workspace{
		logger:        logger.With("component", "workspace"),
		engine:        filter.NewEngine(logger),
		fieldDepth:    cfg.FieldDepth,
		dataset:       record.NewDataset(nil),
		traceOverride: override,
		traceCache:    make(map[uuid.UUID]trace.Config),
		changed:       notify.NewSignal(),
	}
}

// Load replaces the dataset with the records of a decode. The previous
// view stays published until the next Refresh.
func (w *Workspace) Load(res *decoder.Result) *record.Dataset {
	ds := record.NewDataset(res.Records)
	w.mu.Lock()
	w.dataset = ds
	w.softErrors = slices.Clone(res.Errors)
	w.traceCache = make(map[uuid.UUID]trace.Config)
	w.mu.Unlock()

	w.engine.Invalidate()
	w.logger.Info("dataset loaded", "dataset", ds.ID, "records", ds.Len(), "recoverable_errors", len(res.Errors))
	return ds
}

// Dataset returns the current dataset.
func (w *Workspace) Dataset() *record.Dataset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dataset
}

// SoftErrors returns the recoverable errors of the last load.
func (w *Workspace) SoftErrors() []decoder.SoftError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.softErrors)
}

// Query returns the applied query.
func (w *Workspace) Query() filter.Query {
	w.mu.Lock()
	defer w.mu.Unlock()
	q := w.query
	q.Clauses = slices.Clone(q.Clauses)
	return q
}

// SetQuery replaces the whole applied query.
func (w *Workspace) SetQuery(q filter.Query) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q.Clauses = slices.Clone(q.Clauses)
	w.query = q
}

// SetFilters replaces the filter clauses.
func (w *Workspace) SetFilters(clauses []filter.Clause) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query.Clauses = slices.Clone(clauses)
}

// SetOrder sets the sort field and direction. An empty field keeps
// dataset order.
func (w *Workspace) SetOrder(field string, dir filter.Direction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query.OrderBy = field
	w.query.Direction = dir
}

// SetSearch sets the global search term.
func (w *Workspace) SetSearch(term string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query.Search = term
}

func (w *Workspace) snapshot() (*record.Dataset, filter.Query) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q := w.query
	q.Clauses = slices.Clone(q.Clauses)
	return w.dataset, q
}

// Refresh recomputes the view from the current dataset and query and
// publishes it. If a newer Refresh starts first, this one returns
// callgroup.ErrSuperseded and publishes nothing.
func (w *Workspace) Refresh(ctx context.Context) (*View, error) {
	ds, q := w.snapshot()
	start := time.Now()
	v, err := w.view.Do(ctx, func(ctx context.Context) (View, error) {
		idx, err := w.engine.Run(ctx, ds, q)
		if err != nil {
			return View{}, err
		}
		return View{
			DatasetID: ds.ID,
			Query:     q,
			Indices:   idx,
			Records:   filter.Select(ds, idx),
			Total:     ds.Len(),
		}, nil
	})
	if errors.Is(err, callgroup.ErrSuperseded) {
		w.logger.Debug("refresh superseded", "dataset", ds.ID)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("refresh view: %w", err)
	}
	w.changed.Notify()
	w.logger.Debug("view refreshed", "dataset", ds.ID, "visible", len(v.Indices), "total", v.Total, "elapsed", time.Since(start))
	return &v, nil
}

// Changed returns the signal notified each time a view is published.
// Hosts wait on it to redraw.
func (w *Workspace) Changed() *notify.Signal {
	return w.changed
}

// View returns the last published view, or nil before the first Refresh.
func (w *Workspace) View() *View {
	return w.view.Load()
}

// SetTraceOverride replaces the trace field override. Nil clears it.
func (w *Workspace) SetTraceOverride(cfg *trace.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cfg == nil {
		w.traceOverride = nil
		return
	}
	c := *cfg
	w.traceOverride = &c
}

// TraceConfig returns the trace field names for the current dataset:
// the override where set, detected names elsewhere. Detection runs once
// per dataset; concurrent callers share one detection.
func (w *Workspace) TraceConfig(ctx context.Context) (trace.Config, error) {
	w.mu.Lock()
	ds := w.dataset
	detected, ok := w.traceCache[ds.ID]
	override := w.traceOverride
	w.mu.Unlock()

	if !ok {
		var err error
		detected, err = w.detector.Do(ctx, ds.ID, func() (trace.Config, error) {
			return trace.DetectConfig(ds.Records), nil
		})
		if err != nil {
			return trace.Config{}, err
		}
		w.mu.Lock()
		if w.dataset == ds {
			w.traceCache[ds.ID] = detected
		}
		w.mu.Unlock()
	}

	if override == nil {
		return detected, nil
	}
	return override.Merge(detected), nil
}

// TraceGraph builds the service graph of the visible records, or of the
// whole dataset before the first Refresh.
func (w *Workspace) TraceGraph(ctx context.Context) (trace.Graph, error) {
	cfg, err := w.TraceConfig(ctx)
	if err != nil {
		return trace.Graph{}, err
	}
	return trace.BuildGraph(w.visible(), cfg), nil
}

// visible returns the records of the published view when it belongs to
// the current dataset, otherwise the whole dataset.
func (w *Workspace) visible() []record.Record {
	ds := w.Dataset()
	if v := w.View(); v != nil && v.DatasetID == ds.ID {
		return v.Records
	}
	return ds.Records
}

// Fields lists the dotted field paths present in the dataset.
func (w *Workspace) Fields() []string {
	return fieldpath.Discover(w.Dataset().Records, w.fieldDepth)
}

// Transform runs script over the whole dataset and, on success, replaces
// it with the result and refreshes the view. On any failure the dataset
// is left untouched.
func (w *Workspace) Transform(ctx context.Context, exec transform.Executor, script string) (*View, error) {
	ds := w.Dataset()
	out, err := exec.Execute(ctx, slices.Clone(ds.Records), script)
	if err != nil {
		w.logger.Warn("transform failed", "dataset", ds.ID, "error", err)
		return nil, fmt.Errorf("transform: %w", err)
	}

	next := record.NewDataset(out)
	w.mu.Lock()
	if w.dataset != ds {
		w.mu.Unlock()
		return nil, ErrDatasetChanged
	}
	w.dataset = next
	w.softErrors = nil
	w.traceCache = make(map[uuid.UUID]trace.Config)
	w.mu.Unlock()

	w.engine.Invalidate()
	w.logger.Info("dataset transformed", "from", ds.ID, "to", next.ID, "records_in", ds.Len(), "records_out", next.Len())
	return w.Refresh(ctx)
}
