package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"loglens/internal/decoder"
	"loglens/internal/digester/level"
	"loglens/internal/workspace"
)

// loadSummary is the machine-readable form of a load.
type loadSummary struct {
	Mode    string         `json:"mode"`
	Records int            `json:"records"`
	Levels  map[string]int `json:"levels"`
	Errors  []string       `json:"errors,omitempty"`
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file-or-glob>... | -",
		Short: "Decode inputs and summarize them",
		Long:  "Decode the inputs and print the record count, the level breakdown and any recoverable per-line errors.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			res, err := a.loadInputs(cmd.Context(), cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			sum := loadSummary{Mode: string(res.Mode), Records: len(res.Records), Levels: map[string]int{}}
			for _, r := range res.Records {
				lvl := level.OfField(r, a.cfg.LevelField)
				if lvl == "" {
					lvl = "-"
				}
				sum.Levels[lvl]++
			}
			for _, e := range res.Errors {
				sum.Errors = append(sum.Errors, e.Error())
			}
			if p.structured() {
				return p.emit(sum)
			}

			_, _ = fmt.Fprintln(p.w, res.Summary())
			levels := make([]string, 0, len(sum.Levels))
			for l := range sum.Levels {
				levels = append(levels, l)
			}
			sort.Strings(levels)
			rows := make([][]string, len(levels))
			for i, l := range levels {
				rows[i] = []string{l, strconv.Itoa(sum.Levels[l])}
			}
			p.table([]string{"LEVEL", "COUNT"}, rows)
			printSoftErrors(p.w, res.Errors)
			return nil
		},
	}
}

// printSoftErrors lists recoverable errors below a table.
func printSoftErrors(w io.Writer, errs []decoder.SoftError) {
	if len(errs) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	for _, e := range errs {
		_, _ = fmt.Fprintln(w, "  "+e.Error())
	}
}

// openWorkspace loads the inputs into a fresh workspace configured from
// the settings, with the saved query applied.
func (a *app) openWorkspace(ctx context.Context, cmd *cobra.Command, args []string) (*workspace.Workspace, error) {
	res, err := a.loadInputs(ctx, cmd.InOrStdin(), args)
	if err != nil {
		return nil, err
	}
	ws := workspace.New(workspace.Config{
		TraceOverride: a.cfg.Trace,
		FieldDepth:    a.cfg.FieldDepth,
		Logger:        a.logger,
	})
	ws.Load(res)
	ws.SetQuery(a.cfg.Query)
	return ws, nil
}
