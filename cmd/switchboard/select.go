package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/routing"
)

var selectFlags struct {
	exclude []string
}

var selectCmd = &cobra.Command{
	Use:   "select FEATURE",
	Short: "Choose a provider for a feature",
	Long: `Choose the provider that should serve a feature right now.

Providers are tried in priority order. Excluded providers and paid providers
whose monthly budget is exhausted are skipped. When nothing is eligible the
last-resort provider is returned.

Examples:
  # Pick a provider for chat
  switchboard select chat

  # Skip a provider that just failed
  switchboard select chat --exclude openai

  # Machine-readable decision
  switchboard select summarize --output json`,
	Args: cobra.ExactArgs(1),
	RunE: selectProvider,
}

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().StringSliceVarP(&selectFlags.exclude, "exclude", "x", nil, "providers to skip (repeatable or comma separated)")
}

func selectProvider(cmd *cobra.Command, args []string) error {
	excluded, err := routing.ParseExclusions(selectFlags.exclude)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	decision := a.Service.SelectProvider(cmd.Context(), args[0], excluded)
	if err := printResult(cmd, decision); err != nil {
		return cli.NewCommandError("select", err)
	}
	return nil
}
