package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"loglens/internal/filter"
)

func newFilterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <file-or-glob>... | -",
		Short: "Filter, search and sort records",
		Long: `Apply filter clauses, a free-text search and an ordering to the inputs.

Clauses are given as field:operator:value, where operator is contains,
not_contains or equals. Consecutive clauses are ANDed; prefix a clause
with "|" to start a new OR group. Without flags the saved query is used.`,
		Example: `  loglens filter app.log --where level:equals:error --where '|service:contains:db'
  loglens filter app.log --search timeout --order-by timestamp --desc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			if reset, _ := flags.GetBool("clear"); reset {
				a.cfg.Query = filter.Query{Direction: filter.Asc}
			}
			if flags.Changed("where") {
				exprs, _ := flags.GetStringArray("where")
				clauses, err := parseWhere(exprs, a.cfg.NextClauseID)
				if err != nil {
					return err
				}
				a.cfg.Clauses = clauses
			}
			if flags.Changed("search") {
				a.cfg.Search, _ = flags.GetString("search")
			}
			if flags.Changed("order-by") {
				a.cfg.OrderBy, _ = flags.GetString("order-by")
			}
			if desc, _ := flags.GetBool("desc"); desc {
				a.cfg.Direction = filter.Desc
			} else if flags.Changed("desc") {
				a.cfg.Direction = filter.Asc
			}

			ws, err := a.openWorkspace(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			view, err := ws.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			if save, _ := flags.GetBool("save"); save {
				if err := a.save(cmd.Context()); err != nil {
					return err
				}
			}

			indices, recs := view.Indices, view.Records
			if limit, _ := flags.GetInt("limit"); limit > 0 && limit < len(recs) {
				indices, recs = indices[:limit], recs[:limit]
			}
			if err := p.records(indices, recs); err != nil {
				return err
			}
			if !p.structured() {
				_, _ = fmt.Fprintf(p.w, "\n%d of %d records", len(view.Records), view.Total)
				if len(view.Query.Clauses) > 0 {
					_, _ = fmt.Fprintf(p.w, " (where %s)", formatClauses(view.Query.Clauses))
				}
				_, _ = fmt.Fprintln(p.w)
				if terms := filter.ActiveSearchTerms(view.Query.Clauses); len(terms) > 0 {
					_, _ = fmt.Fprintf(p.w, "highlight: %q\n", terms)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArray("where", nil, "filter clause field:operator:value (repeatable, \"|\" prefix for OR)")
	cmd.Flags().String("search", "", "case-insensitive text search over whole records")
	cmd.Flags().String("order-by", "", "field path to sort by")
	cmd.Flags().Bool("desc", false, "sort descending")
	cmd.Flags().Int("limit", 0, "print at most this many records")
	cmd.Flags().Bool("clear", false, "ignore the saved query")
	cmd.Flags().Bool("save", false, "persist the resulting query to the settings file")
	return cmd
}

func newFieldsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields <file-or-glob>... | -",
		Short: "List field paths present in the inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("depth") {
				a.cfg.FieldDepth, _ = cmd.Flags().GetInt("depth")
			}
			ws, err := a.openWorkspace(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			fields := ws.Fields()
			if p.structured() {
				return p.emit(fields)
			}
			for _, f := range fields {
				_, _ = fmt.Fprintln(p.w, f)
			}
			return nil
		},
	}
	cmd.Flags().Int("depth", 0, "maximum nesting depth (0 = unlimited)")
	return cmd
}
