package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration with environment overrides, validate it and
print the resulting provider routing.

Examples:
  switchboard validate
  switchboard validate --config /etc/switchboard/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Configuration valid: %s\n", cfgFile)
	fmt.Fprintf(w, "✓ Providers: %d (%d paid)\n", len(registry.Providers()), len(registry.Paid()))
	for _, feature := range registry.Features() {
		route := registry.ForFeature(feature)
		names := make([]string, len(route))
		for i, p := range route {
			names[i] = string(p.ID)
		}
		fmt.Fprintf(w, "  %s: %s (last resort %s)\n", feature, strings.Join(names, " → "), registry.LastResort(feature).ID)
	}
	fmt.Fprintf(w, "✓ Usage store: %s\n", cfg.Usage.Backend)
	fmt.Fprintf(w, "✓ State store: %s\n", cfg.State.Backend)
	if cfg.Sweep.Enabled {
		fmt.Fprintf(w, "✓ Health sweep: %s\n", cfg.Sweep.Schedule)
	} else {
		fmt.Fprintln(w, "- Health sweep: disabled")
	}
	return nil
}
