package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show spend, budgets and provider metrics",
	Long: `Show total spend, per-provider budget status, metrics for every
provider and feature pair, and routing statistics.

Examples:
  switchboard dashboard
  switchboard dashboard --output json`,
	RunE: showDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func showDashboard(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := printResult(cmd, a.Service.Dashboard(cmd.Context())); err != nil {
		return cli.NewCommandError("dashboard", err)
	}
	return nil
}
