package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/internal/app"
	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
)

// loadConfig reads the configuration file with environment overrides and
// publishes it as the process-wide configuration.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// commandLogger returns the logger for one-shot commands. Only warnings
// reach the terminal unless --verbose is set.
func commandLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	lc.Format = "text"
	lc.Level = "warn"
	if verbose {
		lc.Level = "debug"
	}
	return app.NewLogger(lc, w)
}

// openApp loads the configuration and assembles the components for a
// one-shot command. The caller must Close the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := commandLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return app.New(cfg, logger)
}

// printResult writes data in the format selected by --output.
func printResult(cmd *cobra.Command, data any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}
