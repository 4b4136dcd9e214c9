package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/internal/app"
	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the switchboard service",
	Long: `Start the switchboard HTTP service with the specified configuration.

The service answers provider selection requests, records outcomes, runs the
health sweep on its cron schedule and exposes health probes and metrics.

Examples:
  # Start with default config
  switchboard run

  # Start with custom config
  switchboard run --config /etc/switchboard/config.yaml

  # Override listen address
  switchboard run --listen 0.0.0.0:8090

  # Open the stores and exit without serving
  switchboard run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and open stores without serving")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := app.NewLogger(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Switchboard v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	fmt.Fprintln(out, "✓ Configuration loaded")

	a, err := app.New(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	fmt.Fprintf(out, "✓ Usage store ready (%s)\n", cfg.Usage.Backend)
	fmt.Fprintf(out, "✓ State store ready (%s)\n", cfg.State.Backend)
	fmt.Fprintf(out, "✓ Providers loaded (%d providers)\n", len(a.Service.Registry().Providers()))

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Dry run complete")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if cfg.Sweep.Enabled {
		scheduler := orchestrator.NewScheduler(a.Service, cfg.Sweep.Schedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			fmt.Fprintf(out, "✓ Health sweep scheduled (%s, next %s)\n", cfg.Sweep.Schedule, next.Format("15:04:05"))
		}
	}

	if cfg.Alerting.Watch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				if err := a.ApplyConfig(next); err != nil {
					logger.Error("rejected reloaded alert thresholds", "error", err)
				}
			})
			if err != nil {
				logger.Error("configuration watcher stopped", "error", err)
			}
		}()
		fmt.Fprintln(out, "✓ Watching configuration for threshold changes")
	}

	srv := server.New(&cfg.Server, a.Service, server.Options{
		Checker:     a.Checker,
		Metrics:     a.Metrics,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
		Logger:      logger,
	})

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if a.Metrics != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
