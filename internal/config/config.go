package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete lockable configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Resources ResourcesConfig `mapstructure:"resources"`
	State     StateConfig     `mapstructure:"state"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Queue     QueueConfig     `mapstructure:"queue"`

	// Admins may unreserve resources reserved by other users
	Admins []string `mapstructure:"admins"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Level is the minimum level logged: debug, info, warn, error
	Level string `mapstructure:"level"`
	// File is the log file path; empty logs to stderr
	File string `mapstructure:"file"`
	// MaxSizeMB rotates File once it grows past this size (0 = never)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups"`
}

// ResourcesConfig controls where resource definitions come from
type ResourcesConfig struct {
	// File is the YAML file holding resource definitions
	File string `mapstructure:"file"`
	// Watch reloads definitions when File changes (serve only)
	Watch bool `mapstructure:"watch"`
	// ReloadDebounceMs coalesces bursts of file events before reloading
	ReloadDebounceMs int `mapstructure:"reload_debounce_ms"`
}

// StateConfig controls where claim state is persisted between CLI invocations
type StateConfig struct {
	// Dir holds the claim state file and its lock file
	Dir string `mapstructure:"dir"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// QueueConfig controls how queued claimants retry
type QueueConfig struct {
	// InitialIntervalMs is the first retry delay
	InitialIntervalMs int `mapstructure:"initial_interval_ms"`
	// MaxIntervalMs caps the delay between retries
	MaxIntervalMs int `mapstructure:"max_interval_ms"`
	// MaxElapsedSeconds gives up after this long (0 = retry until cancelled)
	MaxElapsedSeconds int `mapstructure:"max_elapsed_seconds"`
}

// InitialInterval returns the first retry delay as a time.Duration
func (c *QueueConfig) InitialInterval() time.Duration {
	return time.Duration(c.InitialIntervalMs) * time.Millisecond
}

// MaxInterval returns the retry delay cap as a time.Duration
func (c *QueueConfig) MaxInterval() time.Duration {
	return time.Duration(c.MaxIntervalMs) * time.Millisecond
}

// MaxElapsed returns the give-up deadline as a time.Duration (0 means never)
func (c *QueueConfig) MaxElapsed() time.Duration {
	return time.Duration(c.MaxElapsedSeconds) * time.Second
}

// ReloadDebounce returns the reload debounce window as a time.Duration
func (c *ResourcesConfig) ReloadDebounce() time.Duration {
	return time.Duration(c.ReloadDebounceMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Resources: ResourcesConfig{
			File:             "resources.yaml",
			Watch:            true,
			ReloadDebounceMs: 100,
		},
		State: StateConfig{
			Dir: ".lockable",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9464",
		},
		Queue: QueueConfig{
			InitialIntervalMs: 500,
			MaxIntervalMs:     30_000,
			MaxElapsedSeconds: 0, // Retry until the caller cancels
		},
		Admins: []string{},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("resources.file", defaults.Resources.File)
	viper.SetDefault("resources.watch", defaults.Resources.Watch)
	viper.SetDefault("resources.reload_debounce_ms", defaults.Resources.ReloadDebounceMs)

	viper.SetDefault("state.dir", defaults.State.Dir)

	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	viper.SetDefault("queue.initial_interval_ms", defaults.Queue.InitialIntervalMs)
	viper.SetDefault("queue.max_interval_ms", defaults.Queue.MaxIntervalMs)
	viper.SetDefault("queue.max_elapsed_seconds", defaults.Queue.MaxElapsedSeconds)

	viper.SetDefault("admins", defaults.Admins)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lockable")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lockable"
	}
	return filepath.Join(home, ".config", "lockable")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
