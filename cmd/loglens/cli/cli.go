// Package cli implements the loglens command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"loglens/internal/config"
	configfile "loglens/internal/config/file"
	"loglens/internal/home"
	"loglens/internal/logging"
)

// logLevelEnv overrides the default log level when --log-level is not set.
const logLevelEnv = "LOGLENS_LOG_LEVEL"

// app is the state shared by all subcommands, set up once before any of
// them runs.
type app struct {
	logger *slog.Logger
	home   home.Dir
	store  *configfile.Store
	cfg    *config.Config
}

// NewRootCommand returns the loglens root command with all subcommands
// wired in.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "loglens",
		Short:        "Explore structured and plain-text log files",
		Long:         "Load JSON, NDJSON, CSV/TSV and OTLP log files, filter and sort them, and correlate distributed traces.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("home", "", "home directory (default: platform config dir)")
	pf.String("config", "", "settings file (default: <home>/config.json)")
	pf.String("format", "", "input format: auto, json, ndjson, csv, tsv, otlp")
	pf.String("delimiter", "", `table cell delimiter (e.g. ";" or "\t")`)
	pf.String("max-bytes", "", "maximum decompressed size per input (e.g. 64MB)")
	pf.String("log-level", "", "log level spec, e.g. info or warn,decoder=debug (env "+logLevelEnv+")")
	pf.String("log-format", "text", "log output format: text or json")
	pf.StringP("output", "o", "table", "output format: table, json, ndjson or msgpack")
	pf.String("level-field", "", "field path shown as the record level (default: detected)")
	pf.String("timestamp-field", "", "field path shown as the record time (default: detected)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(
		newLoadCmd(a),
		newFilterCmd(a),
		newFieldsCmd(a),
		newTraceCmd(a),
		newTransformCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		versionCmd,
	)
	return root
}

// setup builds the logger, resolves the home directory and loads the
// settings, applying flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	levels, _ := flags.GetString("log-level")
	if !flags.Changed("log-level") {
		if env := os.Getenv(logLevelEnv); env != "" {
			levels = env
		}
	}
	logFormat, _ := flags.GetString("log-format")
	logger, _, err := logging.New(cmd.ErrOrStderr(), logging.Options{Format: logFormat, Levels: levels})
	if err != nil {
		return err
	}
	a.logger = logger

	homeFlag, _ := flags.GetString("home")
	if homeFlag != "" {
		a.home = home.New(homeFlag)
	} else if a.home, err = home.Default(); err != nil {
		return err
	}

	cfgPath, _ := flags.GetString("config")
	if cfgPath == "" {
		cfgPath = a.home.ConfigPath()
	}
	a.store = configfile.NewStore(cfgPath)

	cfg, err := a.store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if v, _ := flags.GetString("format"); flags.Changed("format") {
		cfg.Decoder.Format = v
	}
	if v, _ := flags.GetString("delimiter"); flags.Changed("delimiter") {
		cfg.Decoder.Delimiter = v
	}
	if v, _ := flags.GetString("max-bytes"); flags.Changed("max-bytes") {
		cfg.Decoder.MaxBytes = v
	}
	if v, _ := flags.GetString("level-field"); flags.Changed("level-field") {
		cfg.LevelField = v
	}
	if v, _ := flags.GetString("timestamp-field"); flags.Changed("timestamp-field") {
		cfg.TimestampField = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("settings loaded", "path", cfgPath)
	return nil
}

// save persists the query part of the current settings.
func (a *app) save(ctx context.Context) error {
	q := a.cfg.Query
	_, err := a.store.Update(ctx, func(c *config.Config) error {
		c.Query = q
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	a.logger.Info("settings saved", "path", a.store.Path())
	return nil
}

// output returns a printer for cmd's output with the configured level
// and timestamp fields.
func (a *app) output(cmd *cobra.Command) (*printer, error) {
	p, err := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	p.levelField = a.cfg.LevelField
	p.timestampField = a.cfg.TimestampField
	return p, nil
}

// outputFormat returns the --output flag value.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}
