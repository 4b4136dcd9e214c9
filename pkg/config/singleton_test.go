package config

import (
	"os"
	"testing"
)

func TestSingleton(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	if GetConfig() != nil {
		t.Fatal("GetConfig() before Initialize = non-nil, want nil")
	}

	path := writeConfig(t, minimalConfig)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg := MustGetConfig()
	if len(cfg.Providers) != 2 {
		t.Errorf("len(Providers) = %d, want 2", len(cfg.Providers))
	}

	// A second Initialize is ignored.
	if err := Initialize("does-not-exist.yaml"); err != nil {
		t.Errorf("second Initialize() error = %v, want nil", err)
	}
	if GetConfig() != cfg {
		t.Error("second Initialize() replaced the configuration")
	}
}

func TestReloadConfig(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	path := writeConfig(t, minimalConfig)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	original := GetConfig()

	if err := os.WriteFile(path, []byte(minimalConfig+"alerting:\n  min_samples: 42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg.Alerting.MinSamples != 42 || GetConfig().Alerting.MinSamples != 42 {
		t.Errorf("MinSamples after reload = %d, want 42", GetConfig().Alerting.MinSamples)
	}

	// A broken file keeps the previous configuration.
	if err := os.WriteFile(path, []byte("providers: []"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Error("ReloadConfig() with invalid file error = nil, want error")
	}
	if GetConfig() == original || GetConfig().Alerting.MinSamples != 42 {
		t.Error("failed reload replaced the configuration")
	}
}

func TestMustGetConfig_PanicsWhenUninitialized(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic")
		}
	}()
	MustGetConfig()
}

func TestSetConfig(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	cfg := validConfig()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig() after SetConfig() returned a different instance")
	}
}
