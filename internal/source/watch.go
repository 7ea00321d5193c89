package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"loglens/internal/logging"
)

// WatchConfig configures a Watcher.
type WatchConfig struct {
	// Patterns are the input glob patterns to observe.
	Patterns []string

	// MinInterval is the minimum time between two change callbacks.
	// Bursts of file events inside the interval collapse into one call.
	// Zero means 250ms.
	MinInterval time.Duration

	Logger *slog.Logger
}

// Watcher calls back when files matching its patterns are written,
// created, removed or renamed.
type Watcher struct {
	patterns []string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewWatcher creates a watcher. Nothing is observed until Run.
func NewWatcher(cfg WatchConfig) *Watcher {
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Watcher{
		patterns: cfg.Patterns,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   logging.Default(cfg.Logger).With("component", "watcher"),
	}
}

// Run observes the pattern directories until ctx is done, invoking
// onChange after relevant events. An error from onChange stops Run and is
// returned; cancellation of ctx returns nil.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range WatchDirs(w.patterns) {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	// Capacity one: a pending signal already covers any later event.
	changed := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-fsw.Events:
				if !ok {
					return nil
				}
				if !relevant(event) || !Matches(event.Name, w.patterns) {
					continue
				}
				w.logger.Debug("input changed", "path", event.Name, "op", event.Op.String())
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return nil
				}
				w.logger.Warn("fsnotify error", "error", err)
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changed:
			}
			if err := w.limiter.Wait(gctx); err != nil {
				return nil
			}
			// Drop signals that arrived while waiting; this reload sees them.
			select {
			case <-changed:
			default:
			}
			if err := onChange(gctx); err != nil {
				return err
			}
		}
	})
	return g.Wait()
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
