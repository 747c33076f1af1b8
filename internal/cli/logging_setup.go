package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/logging"
)

// setupLogging configures logging from config file, environment, and
// the --debug flag, and binds the logger into the command context.
func setupLogging(cmd *cobra.Command, cfg config.Config) {
	loggingCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	root := logging.NewLogger(loggingCfg, cmd.ErrOrStderr())
	logger = logging.ComponentLogger(root, "cli")

	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	logger.Debug().
		Str("command", cmd.Name()).
		Str("db", cfg.Database).
		Bool("tty", isTerminal(os.Stdout)).
		Msg("command started")
}
