// Package cli provides the helpers shared by the switchboard commands:
// typed command errors with exit codes, text and JSON output formatting,
// and signal handling for graceful shutdown.
//
// Text output renders selections, sweep reports and the dashboard with
// lipgloss styles; JSON output encodes the same values as the HTTP API.
//
//	formatter := cli.NewFormatter(cli.FormatJSON)
//	if err := formatter.FormatTo(os.Stdout, decision); err != nil {
//	    return err
//	}
package cli
