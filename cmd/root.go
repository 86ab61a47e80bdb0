// =============================================================================
// Sell Out Trends - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sellout)
//   ├── reportCmd  (sellout report)
//   ├── optionsCmd (sellout options)
//   ├── inspectCmd (sellout inspect)
//   └── versionCmd (sellout version)
//
// The root command owns the global flags, loads the configuration, checks
// the shared access key and builds the logger handed to the pipeline.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"github.com/ginjaninja78/sellout-trends/internal/loader"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// accessKey is the shared secret supplied on the command line.
var accessKey string

// dataDir overrides data_dir from the configuration.
var dataDir string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "sellout",
	Short: "Sell Out Trends - client and product sales trends from Sell Out exports",
	Long: `Sell Out Trends reads a Sell Out sales export together with the zone and
product reference workbooks, reconciles them, and reports how each client's
purchases of each product moved across 6 month, 1 year and 1.5 year windows.

Key Features:
  - Tolerant header detection and column normalization
  - Soft handling of missing reference workbooks
  - Filters by segment, brand, classification, account manager and geography
  - Grid output as XLSX, CSV, XML or JSON

Example Usage:
  sellout report                                  # Grid for the data directory
  sellout report --hierarchy product --year 2023  # Product first, 2023 totals
  sellout report --filter brand=MICHELIN -f csv   # Filtered flat CSV
  sellout options                                 # List filter values
  sellout inspect "Sell Out 2023.xlsx"            # Show header resolution`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main(). An interrupt
// cancels the running pipeline between stages.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&accessKey,
		"access-key",
		"",
		"Shared access key checked against access_keys (or set "+config.EnvAccessKey+")",
	)

	rootCmd.PersistentFlags().StringVarP(
		&dataDir,
		"data-dir",
		"d",
		"",
		"Directory holding the Sell Out export and reference workbooks",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the configuration, applies global flag overrides, checks the
// access key and builds the logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.CheckAccess(config.SuppliedKey(accessKey)); err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, newLogger(cfg.LogLevel, verbose), nil
}

// newLogger builds the console logger on stderr.
func newLogger(level string, debug bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// configFor is used by the smaller commands that only need config and the
// loader options.
func configFor() (*config.Config, loader.Options, error) {
	cfg, _, err := setup()
	if err != nil {
		return nil, loader.Options{}, err
	}
	return cfg, loader.OptionsFromConfig(cfg), nil
}
