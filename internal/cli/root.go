// Package cli wires the carbonledger commands: quantification,
// scenario modelling, lifecycle analysis, factor-library management,
// and saved-run inspection.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/store"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// cfg holds the loaded configuration for the current invocation.
var cfg config.Config //nolint:gochecknoglobals // Set once in PersistentPreRunE

// NewRootCmd creates the root Cobra command for the carbonledger CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "carbonledger",
		Short:   "Greenhouse-gas emissions quantification",
		Long:    "carbonledger: quantify activity data into CO2e, model reduction scenarios, and run lifecycle analyses",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				loaded.Database = dbPath
			}
			cfg = loaded

			setupLogging(cmd, cfg)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file")
	cmd.PersistentFlags().String("db", "", "path to the factor/run database (overrides config)")
	cmd.AddCommand(
		newCalcCmd(),
		newScenarioCmd(),
		newLCACmd(),
		newFactorCmd(),
		newRunCmd(),
		newManualCmd(),
	)

	return cmd
}

// openStore opens the configured database, creating it on first use.
func openStore() (*store.Store, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	return store.Open(cfg.Database)
}

const rootCmdExample = `  # Quantify activity data from CSV files
  carbonledger calc --input activities.csv --region eu --year 2024

  # Model a reduction scenario on top of a calculation
  carbonledger scenario --input activities.csv --reduce-scope scope2=30 --target 500

  # Run a lifecycle analysis over stage data
  carbonledger lca --input stages.csv --boundary cradle-to-gate

  # Manage the emission factor library
  carbonledger factor list --active
  carbonledger factor import --library factors.yaml

  # Inspect saved runs
  carbonledger run list
  carbonledger run compare <id-a> <id-b>`
