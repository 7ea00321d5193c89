package filter

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"loglens/internal/logging"
	"loglens/internal/record"
)

// checkEvery is how many records are processed between context checks.
const checkEvery = 1024

// Query describes one filtered, searched and ordered view of a dataset.
type Query struct {
	Clauses   []Clause  `json:"filters,omitempty" yaml:"filters,omitempty"`
	Search    string    `json:"search,omitempty" yaml:"search,omitempty"`
	OrderBy   string    `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Direction Direction `json:"orderDirection,omitempty" yaml:"orderDirection,omitempty"`
}

// Engine runs queries against datasets. It owns a cache of the lowercased
// text of each record, keyed by dataset ID and record index; the cache is
// dropped whenever a different dataset is queried or Invalidate is called.
//
// Engine is safe for concurrent use.
type Engine struct {
	logger *slog.Logger

	mu      sync.Mutex
	cacheID uuid.UUID
	cache   []string
	cached  []bool
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.Default(logger).With("component", "filter")}
}

// Invalidate drops the text cache.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cacheID = uuid.Nil
	e.cache = nil
	e.cached = nil
}

// Run applies q to ds and returns the indices of the visible records in
// display order: filter, then search, then a stable sort. It stops early
// with ctx.Err() when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, ds *record.Dataset, q Query) ([]int, error) {
	if ds == nil {
		return nil, nil
	}
	f := Compile(q.Clauses)
	term := strings.ToLower(q.Search)

	idx := make([]int, 0, len(ds.Records))
	for i, r := range ds.Records {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !f.Match(r) {
			continue
		}
		if term != "" && !strings.Contains(e.text(ds, i), term) {
			continue
		}
		idx = append(idx, i)
	}

	if q.OrderBy != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := NewComparator(q.OrderBy, q.Direction)
		slices.SortStableFunc(idx, func(a, b int) int {
			return c.Compare(ds.Records[a], ds.Records[b])
		})
	}
	return idx, nil
}

// Search returns the indices of records whose text contains term, case
// insensitively. Structured records are searched in their canonical JSON
// form.
func (e *Engine) Search(ds *record.Dataset, term string) []int {
	if ds == nil {
		return nil
	}
	term = strings.ToLower(term)
	var idx []int
	for i := range ds.Records {
		if term == "" || strings.Contains(e.text(ds, i), term) {
			idx = append(idx, i)
		}
	}
	return idx
}

// text returns the cached lowercased text of record i of ds.
func (e *Engine) text(ds *record.Dataset, i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cacheID != ds.ID || len(e.cache) != len(ds.Records) {
		if e.cacheID != uuid.Nil {
			e.logger.Debug("text cache reset", "dataset", ds.ID)
		}
		e.cacheID = ds.ID
		e.cache = make([]string, len(ds.Records))
		e.cached = make([]bool, len(ds.Records))
	}
	if !e.cached[i] {
		e.cache[i] = strings.ToLower(record.String(ds.Records[i]))
		e.cached[i] = true
	}
	return e.cache[i]
}

// Select resolves indices to records.
func Select(ds *record.Dataset, idx []int) []record.Record {
	out := make([]record.Record, len(idx))
	for i, j := range idx {
		out[i] = ds.Records[j]
	}
	return out
}
