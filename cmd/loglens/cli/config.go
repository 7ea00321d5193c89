package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loglens/internal/config"
	"loglens/internal/filter"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := a.output(cmd)
				if err != nil {
					return err
				}
				if p.structured() {
					return p.emit(a.cfg)
				}
				p.kv(configPairs(a.cfg))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.store.Path())
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write default settings if none exist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.home.EnsureExists(); err != nil {
					return err
				}
				cfg, err := config.LoadOrBootstrap(cmd.Context(), a.store)
				if err != nil {
					return err
				}
				a.cfg = cfg
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.store.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset-query",
			Short: "Clear the saved filters, search and ordering",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a.cfg.Query = filter.Query{Direction: filter.Asc}
				return a.save(cmd.Context())
			},
		},
	)
	return cmd
}

func configPairs(c *config.Config) [][2]string {
	pairs := [][2]string{
		{"Filters", formatClauses(c.Clauses)},
		{"Search", c.Search},
		{"Order by", c.OrderBy},
		{"Direction", string(c.Direction)},
		{"Field depth", strconv.Itoa(c.FieldDepth)},
		{"Format", c.Decoder.Format},
		{"Delimiter", strconv.Quote(c.Decoder.Delimiter)},
		{"Max bytes", c.Decoder.MaxBytes},
		{"Watch interval", c.Watch.MinInterval},
	}
	if c.Trace != nil {
		pairs = append(pairs,
			[2]string{"Trace ID field", c.Trace.TraceIDField},
			[2]string{"Span ID field", c.Trace.SpanIDField},
			[2]string{"Parent span field", c.Trace.ParentSpanIDField},
			[2]string{"Service field", c.Trace.ServiceNameField},
		)
	}
	return pairs
}
