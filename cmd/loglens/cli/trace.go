package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"loglens/internal/trace"
)

// traceReport is the machine-readable form of the default trace output.
type traceReport struct {
	Config trace.Config `json:"config"`
	Graph  trace.Graph  `json:"graph"`
}

func newTraceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file-or-glob>... | -",
		Short: "Correlate distributed traces",
		Long: `Detect the trace fields of the inputs and print the service call graph of
the records matching the saved query. --list prints the trace IDs,
--trace-id the records of one trace, --service the records of one service.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			override := trace.Config{}
			if a.cfg.Trace != nil {
				override = *a.cfg.Trace
			}
			for flag, dst := range map[string]*string{
				"trace-field":   &override.TraceIDField,
				"span-field":    &override.SpanIDField,
				"parent-field":  &override.ParentSpanIDField,
				"service-field": &override.ServiceNameField,
			} {
				if flags.Changed(flag) {
					*dst, _ = flags.GetString(flag)
				}
			}
			a.cfg.Trace = &override

			ws, err := a.openWorkspace(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			if _, err := ws.Refresh(cmd.Context()); err != nil {
				return err
			}
			cfg, err := ws.TraceConfig(cmd.Context())
			if err != nil {
				return err
			}
			visible := ws.View().Records

			if list, _ := flags.GetBool("list"); list {
				ids := trace.IDs(visible, cfg)
				if p.structured() {
					return p.emit(ids)
				}
				rows := make([][]string, len(ids))
				for i, s := range ids {
					rows[i] = []string{s.ID, strconv.Itoa(s.Count)}
				}
				p.table([]string{"TRACE ID", "RECORDS"}, rows)
				return nil
			}
			if id, _ := flags.GetString("trace-id"); id != "" {
				return p.records(nil, trace.Records(visible, cfg, id))
			}
			if svc, _ := flags.GetString("service"); svc != "" {
				return p.records(nil, trace.ServiceRecords(visible, cfg, svc))
			}

			graph, err := ws.TraceGraph(cmd.Context())
			if err != nil {
				return err
			}
			if p.structured() {
				return p.emit(traceReport{Config: cfg, Graph: graph})
			}
			p.kv([][2]string{
				{"Trace ID field", cfg.TraceIDField},
				{"Span ID field", cfg.SpanIDField},
				{"Parent span field", cfg.ParentSpanIDField},
				{"Service field", cfg.ServiceNameField},
			})
			_, _ = p.w.Write([]byte("\n"))
			nodes := make([][]string, len(graph.Nodes))
			for i, n := range graph.Nodes {
				nodes[i] = []string{n.ID, strconv.Itoa(n.LogCount), yesNo(n.HasErrors), yesNo(n.HasWarnings)}
			}
			p.table([]string{"SERVICE", "LOGS", "ERRORS", "WARNINGS"}, nodes)
			_, _ = p.w.Write([]byte("\n"))
			edges := make([][]string, len(graph.Edges))
			for i, e := range graph.Edges {
				edges[i] = []string{e.Source, e.Target, strconv.Itoa(e.RequestCount)}
			}
			p.table([]string{"FROM", "TO", "REQUESTS"}, edges)
			return nil
		},
	}
	cmd.Flags().Bool("list", false, "list trace IDs with their record counts")
	cmd.Flags().String("trace-id", "", "print the records of one trace")
	cmd.Flags().String("service", "", "print the records of one service")
	cmd.Flags().String("trace-field", "", "trace ID field path (default: detected)")
	cmd.Flags().String("span-field", "", "span ID field path (default: detected)")
	cmd.Flags().String("parent-field", "", "parent span ID field path (default: detected)")
	cmd.Flags().String("service-field", "", "service name field path (default: detected)")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
