package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard - budget-aware AI provider orchestration",
	Long: `Switchboard chooses which AI provider serves each feature request.

It keeps paid providers within their monthly budgets, falls back across
providers in priority order, records invocation outcomes and raises alerts
when providers degrade:
  - Budget-aware provider selection with fallback and last resort
  - Outcome logging to SQLite with consecutive failure tracking
  - Scheduled health sweeps with cooldown-guarded alerts
  - Desktop, webhook and log notifications
  - Prometheus metrics and health probes`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json")
}
