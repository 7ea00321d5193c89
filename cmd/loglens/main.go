// Command loglens loads, filters, sorts and correlates log files.
//
// Logging:
//   - Base logger is created once by the root command from --log-level,
//     --log-format and LOGLENS_LOG_LEVEL
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"context"
	"os"
	"os/signal"

	"loglens/cmd/loglens/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cli.NewRootCommand(version).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
