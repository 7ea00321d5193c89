package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"loglens/internal/transform"
)

func newTransformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform <file-or-glob>... | -",
		Short: "Rewrite records with a Go script",
		Long: `Run a Go script over the decoded records and print the result with the
saved query applied. The script defines

  func Transform(records []interface{}) ([]interface{}, error)

where each record is a string (plain text) or a map[string]interface{}.
A bare --script name is looked up in <home>/transforms.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.output(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("script")
			if name == "" {
				return fmt.Errorf("--script is required")
			}
			path := a.home.TransformPath(name)
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ws, err := a.openWorkspace(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			exec := transform.NewYaegi(transform.YaegiConfig{Timeout: timeout, Logger: a.logger})
			view, err := ws.Transform(cmd.Context(), exec, string(src))
			if err != nil {
				return err
			}
			return p.records(view.Indices, view.Records)
		},
	}
	cmd.Flags().String("script", "", "script file or name under <home>/transforms")
	cmd.Flags().Duration("timeout", 30*time.Second, "maximum script run time")
	return cmd
}
