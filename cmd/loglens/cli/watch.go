package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"loglens/internal/callgroup"
	"loglens/internal/source"
	"loglens/internal/workspace"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file-or-glob>...",
		Short: "Reload and re-filter inputs when they change",
		Long:  "Print the filtered view of the inputs, then again after every change until interrupted. Reloads are rate limited by watch.minInterval.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			for _, arg := range args {
				if arg == stdinArg {
					return fmt.Errorf("watch cannot read standard input")
				}
			}
			interval, err := a.cfg.Watch.Interval()
			if err != nil {
				return err
			}

			ws := workspace.New(workspace.Config{
				TraceOverride: a.cfg.Trace,
				FieldDepth:    a.cfg.FieldDepth,
				Logger:        a.logger,
			})
			ws.SetQuery(a.cfg.Query)

			reload := func(ctx context.Context) error {
				res, err := a.loadInputs(ctx, nil, args)
				if err != nil {
					// Files may be mid-rotation; keep watching.
					a.logger.Warn("reload failed", "error", err)
					return nil
				}
				ws.Load(res)
				view, err := ws.Refresh(ctx)
				if errors.Is(err, callgroup.ErrSuperseded) || errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				if !p.structured() {
					_, _ = fmt.Fprintf(p.w, "--- %d of %d records\n", len(view.Records), view.Total)
				}
				return p.records(view.Indices, view.Records)
			}

			if err := reload(cmd.Context()); err != nil {
				return err
			}
			w := source.NewWatcher(source.WatchConfig{
				Patterns:    args,
				MinInterval: interval,
				Logger:      a.logger,
			})
			return w.Run(cmd.Context(), reload)
		},
	}
	return cmd
}
