package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Resources.File != "resources.yaml" {
		t.Errorf("Resources.File = %q, want resources.yaml", cfg.Resources.File)
	}
	if !cfg.Resources.Watch {
		t.Error("Resources.Watch should be true by default")
	}
	if cfg.State.Dir != ".lockable" {
		t.Errorf("State.Dir = %q, want .lockable", cfg.State.Dir)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics = %+v, want enabled on :9464", cfg.Metrics)
	}
	if cfg.Queue.InitialInterval() != 500*time.Millisecond {
		t.Errorf("Queue.InitialInterval() = %v, want 500ms", cfg.Queue.InitialInterval())
	}
	if cfg.Queue.MaxInterval() != 30*time.Second {
		t.Errorf("Queue.MaxInterval() = %v, want 30s", cfg.Queue.MaxInterval())
	}
	if cfg.Queue.MaxElapsed() != 0 {
		t.Errorf("Queue.MaxElapsed() = %v, want 0", cfg.Queue.MaxElapsed())
	}
	if cfg.Resources.ReloadDebounce() != 100*time.Millisecond {
		t.Errorf("Resources.ReloadDebounce() = %v, want 100ms", cfg.Resources.ReloadDebounce())
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("logging.level", "debug")
	viper.Set("state.dir", "/var/lib/lockable")
	viper.Set("admins", []string{"root", "ops"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.State.Dir != "/var/lib/lockable" {
		t.Errorf("State.Dir = %q", cfg.State.Dir)
	}
	if diff := cmp.Diff([]string{"root", "ops"}, cfg.Admins); diff != "" {
		t.Errorf("Admins mismatch (-want +got):\n%s", diff)
	}

	viper.Set("queue.initial_interval_ms", 0)
	if _, err := Load(); err == nil {
		t.Error("Load() should fail validation")
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdg", "lockable") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join("/tmp/xdg", "lockable", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestWriteAndLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	defs := []ResourceDef{{Name: "A", Labels: []string{"linux"}}}

	if err := WriteDefinitions(path, defs); err != nil {
		t.Fatalf("WriteDefinitions() error: %v", err)
	}
	got, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("LoadDefinitions() error: %v", err)
	}
	if diff := cmp.Diff(defs, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(unwrapAll(err)) {
		t.Errorf("LoadDefinitions(missing) error = %v, want not-exist", err)
	}
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}
