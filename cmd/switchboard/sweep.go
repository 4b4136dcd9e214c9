package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
)

var sweepFlags struct {
	failOnAlert bool
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one health sweep",
	Long: `Evaluate every provider and feature pair and every budget once.

Alerts that trigger are sent through the configured notification sinks,
subject to the same cooldown as scheduled sweeps.

Examples:
  # Run a sweep and print triggered checks
  switchboard sweep

  # Fail the command when any alert was dispatched
  switchboard sweep --fail-on-alert`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().BoolVar(&sweepFlags.failOnAlert, "fail-on-alert", false, "exit non-zero when an alert is dispatched")
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	report, err := a.Service.RunHealthSweep(ctx)
	if printErr := printResult(cmd, report); printErr != nil {
		return cli.NewCommandError("sweep", printErr)
	}
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	if sweepFlags.failOnAlert && report.Dispatched > 0 {
		return cli.NewCommandError("sweep", fmt.Errorf("%d alert(s) dispatched", report.Dispatched))
	}
	return nil
}
