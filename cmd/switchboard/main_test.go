package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/routing"
)

const testConfig = `
providers:
  - id: groq
    priority: 1
  - id: openai
    priority: 2
    monthly_budget: 50
    cost_per_unit: 0.01
features:
  chat:
    providers: [groq, openai]
usage:
  backend: sqlite
  sqlite:
    path: %s
state:
  backend: memory
notify:
  log: false
sweep:
  enabled: false
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Replace(testConfig, "%s", filepath.Join(dir, "usage.db"), 1)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, outputFormat = "config.yaml", false, "text"
	selectFlags.exclude = nil
	sweepFlags.failOnAlert = false
	runFlags.listenAddress, runFlags.logLevel, runFlags.dryRun = "", "", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	Version = "0.1.0-test"
	defer func() { Version = origVersion }()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"Switchboard 0.1.0-test", "Git Commit:", runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "select", "sweep", "dashboard", "validate", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"✓ Configuration valid", "Providers: 2 (1 paid)", "chat: groq → openai", "Health sweep: disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand_ConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := execute(t, "validate", "--config", missing)
	if err == nil {
		t.Fatal("validate with missing config error = nil")
	}
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %T, want *cli.ConfigError", err)
	}
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitConfig)
	}
}

func TestSelectCommand(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "select", "chat", "--config", path, "--output", "json")
	if err != nil {
		t.Fatalf("select error = %v", err)
	}
	var d routing.Decision
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("select output is not a decision: %v\n%s", err, out)
	}
	if d.Provider != "groq" || d.Code != routing.ReasonPrimary {
		t.Errorf("decision = %s/%s, want groq/primary", d.Provider, d.Code)
	}

	out, err = execute(t, "select", "chat", "--config", path, "--exclude", "groq", "-o", "json")
	if err != nil {
		t.Fatalf("select --exclude error = %v", err)
	}
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Provider != "openai" || d.Code != routing.ReasonFallback {
		t.Errorf("decision = %s/%s, want openai/fallback", d.Provider, d.Code)
	}
}

func TestSelectCommand_Errors(t *testing.T) {
	path := writeConfig(t)

	if _, err := execute(t, "select", "--config", path); err == nil {
		t.Error("select without feature error = nil")
	}
	if _, err := execute(t, "select", "chat", "--config", path, "--exclude", "cohere"); err == nil {
		t.Error("select with unknown exclusion error = nil")
	}
	if _, err := execute(t, "select", "chat", "--config", path, "--output", "yaml"); err == nil {
		t.Error("select with unknown output format error = nil")
	}
}

func TestSweepCommand(t *testing.T) {
	out, err := execute(t, "sweep", "--config", writeConfig(t), "--output", "json", "--fail-on-alert")
	if err != nil {
		t.Fatalf("sweep error = %v", err)
	}
	var report orchestrator.SweepReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("sweep output is not a report: %v\n%s", err, out)
	}
	// chat and default for each provider.
	if len(report.Pairs) != 4 {
		t.Errorf("len(Pairs) = %d, want 4", len(report.Pairs))
	}
	if len(report.Budgets) != 2 {
		t.Errorf("len(Budgets) = %d, want 2", len(report.Budgets))
	}
	if report.Dispatched != 0 {
		t.Errorf("Dispatched = %d, want 0 on an empty log", report.Dispatched)
	}
}

func TestDashboardCommand(t *testing.T) {
	out, err := execute(t, "dashboard", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("dashboard error = %v", err)
	}
	for _, want := range []string{"groq", "openai"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	out, err := execute(t, "run", "--config", writeConfig(t), "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	for _, want := range []string{"✓ Configuration loaded", "✓ Providers loaded (2 providers)", "✓ Dry run complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}
}
