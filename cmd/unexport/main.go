package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jward/unexport"
	"github.com/jward/unexport/internal/logging"
)

var (
	flagFormat   string
	flagLogLevel string
)

// logger is configured by the root command before any subcommand runs.
var logger = zerolog.Nop()

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "unexport",
	Short:         "Remove exports from JavaScript and TypeScript modules",
	Long:          "Unexport deletes named exports from a module together with every top-level declaration that only those exports kept alive.",
	Version:       unexport.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setupLogging(cmd.ErrOrStderr())
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error|disabled (default: $"+logging.EnvLogLevel+" or warn)")

	rootCmd.AddCommand(stripCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(graphCmd)
}

// setupLogging builds the logger from the environment, letting --log-level
// win over UNEXPORT_LOG_LEVEL.
func setupLogging(w io.Writer) error {
	cfg := logging.FromEnv(logging.DefaultConfig())
	if flagLogLevel != "" {
		lvl, ok := logging.ParseLevel(flagLogLevel)
		if !ok {
			return fmt.Errorf("invalid log level %q", flagLogLevel)
		}
		cfg.Level = lvl
	}
	logger = logging.New(w, cfg)
	return nil
}
