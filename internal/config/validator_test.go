package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "queue.max_interval_ms",
		Value:   10,
		Message: "must be at least queue.initial_interval_ms",
	}

	expected := "queue.max_interval_ms: must be at least queue.initial_interval_ms (got: 10)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "state.dir", Value: "", Message: "must not be empty"},
		}
		expected := "state.dir: must not be empty (got: )"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"negative log size", func(c *Config) { c.Logging.MaxSizeMB = -1 }, "logging.max_size_mb"},
		{"negative log backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"empty resources file", func(c *Config) { c.Resources.File = "" }, "resources.file"},
		{"negative debounce", func(c *Config) { c.Resources.ReloadDebounceMs = -1 }, "resources.reload_debounce_ms"},
		{"empty state dir", func(c *Config) { c.State.Dir = "" }, "state.dir"},
		{"metrics without addr", func(c *Config) { c.Metrics.Addr = "" }, "metrics.addr"},
		{"zero initial interval", func(c *Config) { c.Queue.InitialIntervalMs = 0 }, "queue.initial_interval_ms"},
		{"max below initial", func(c *Config) { c.Queue.MaxIntervalMs = 10 }, "queue.max_interval_ms"},
		{"negative max elapsed", func(c *Config) { c.Queue.MaxElapsedSeconds = -5 }, "queue.max_elapsed_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want error on %s", errs, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_UppercaseLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "WARN"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, want level check to be case-insensitive", errs)
	}
}

func TestConfig_Validate_MetricsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = ""
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, addr is only required when enabled", errs)
	}
}

func TestParseDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []ResourceDef
		wantErr string
	}{
		{
			name: "valid",
			yaml: `
resources:
  - name: A
    labels: [linux, x86_64]
  - name: B
    description: spare board
    labels: [linux]
`,
			want: []ResourceDef{
				{Name: "A", Labels: []string{"linux", "x86_64"}},
				{Name: "B", Description: "spare board", Labels: []string{"linux"}},
			},
		},
		{
			name:    "duplicate names",
			yaml:    "resources:\n  - name: A\n  - name: A\n",
			wantErr: "duplicates resources[0]",
		},
		{
			name:    "empty name",
			yaml:    "resources:\n  - labels: [x]\n",
			wantErr: "must not be empty",
		},
		{
			name:    "whitespace name",
			yaml:    "resources:\n  - name: ' A'\n",
			wantErr: "surrounding whitespace",
		},
		{
			name:    "malformed yaml",
			yaml:    "resources: [",
			wantErr: "parsing resource definitions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDefinitions([]byte(tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseDefinitions() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDefinitions() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDefinitions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDefinitions_Empty(t *testing.T) {
	got, err := ParseDefinitions([]byte("resources: []\n"))
	if err != nil {
		t.Fatalf("ParseDefinitions() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ParseDefinitions() = %v, want empty", got)
	}
}
