package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify lockable configuration",
	Long: `View or modify lockable configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  lockable config set resources.file /etc/lockable/resources.yaml
  lockable config set queue.max_elapsed_seconds 600
  lockable config set metrics.enabled false

Valid keys:
  logging.level                - debug, info, warn or error
  logging.file                 - log file path (empty logs to stderr)
  logging.max_size_mb          - rotate the log file past this size
  logging.max_backups          - rotated log files to keep
  resources.file               - resource definitions YAML file
  resources.watch              - reload definitions on change in serve (true/false)
  resources.reload_debounce_ms - quiet period before a reload
  state.dir                    - claim state directory
  metrics.enabled              - serve prometheus metrics (true/false)
  metrics.addr                 - metrics listen address
  queue.initial_interval_ms    - first retry delay for queued claims
  queue.max_interval_ms        - longest retry delay
  queue.max_elapsed_seconds    - give up after this long (0 = never)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/lockable/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

// settableKeys maps each key accepted by "config set" to its value type.
var settableKeys = map[string]string{
	"logging.level":                "level",
	"logging.file":                 "string",
	"logging.max_size_mb":          "int",
	"logging.max_backups":          "int",
	"resources.file":               "string",
	"resources.watch":              "bool",
	"resources.reload_debounce_ms": "int",
	"state.dir":                    "string",
	"metrics.enabled":              "bool",
	"metrics.addr":                 "string",
	"queue.initial_interval_ms":    "int",
	"queue.max_interval_ms":        "int",
	"queue.max_elapsed_seconds":    "int",
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'lockable config set --help' to see valid keys", key)
	}

	var typedValue any
	switch keyType {
	case "level":
		lower := strings.ToLower(value)
		if !slices.Contains(config.ValidLogLevels(), lower) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		typedValue = lower
	case "string":
		typedValue = value
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigContent = `# lockable configuration

logging:
  # debug, info, warn or error
  level: info
  # Log file; leave empty to log to stderr
  file: ""
  # Rotate the log file once it exceeds this many megabytes (0 = never)
  max_size_mb: 10
  max_backups: 3

resources:
  # YAML file listing the managed resources:
  #   resources:
  #     - name: device-1
  #       description: Pixel 8, lab rack 2
  #       labels: [android, pixel]
  file: resources.yaml
  # Reload the definitions when the file changes (serve only)
  watch: true
  reload_debounce_ms: 100

state:
  # Directory holding the claim state shared by every lockable invocation
  dir: .lockable

metrics:
  # Prometheus endpoint exposed by "lockable serve"
  enabled: true
  addr: ":9464"

queue:
  # Exponential backoff used while a queued claim waits for resources
  initial_interval_ms: 500
  max_interval_ms: 30000
  # Give up after this many seconds (0 = wait until interrupted)
  max_elapsed_seconds: 0

# Users allowed to release reservations made by others
admins: []
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'lockable config set' to modify values", configFile)
	}
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", config.ConfigFile())
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: LOCKABLE_* (e.g., LOCKABLE_STATE_DIR)")
	return nil
}
