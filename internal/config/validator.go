package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "queue.max_interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	if c.Resources.File == "" {
		errors = append(errors, ValidationError{
			Field:   "resources.file",
			Value:   c.Resources.File,
			Message: "must not be empty",
		})
	}
	if c.Resources.ReloadDebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "resources.reload_debounce_ms",
			Value:   c.Resources.ReloadDebounceMs,
			Message: "must be non-negative",
		})
	}

	if c.State.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "state.dir",
			Value:   c.State.Dir,
			Message: "must not be empty",
		})
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "metrics.addr",
			Value:   c.Metrics.Addr,
			Message: "must be set when metrics are enabled",
		})
	}

	errors = append(errors, c.validateQueue()...)
	return errors
}

// validateQueue validates the QueueConfig
func (c *Config) validateQueue() []ValidationError {
	var errors []ValidationError

	if c.Queue.InitialIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "queue.initial_interval_ms",
			Value:   c.Queue.InitialIntervalMs,
			Message: "must be positive",
		})
	}
	if c.Queue.MaxIntervalMs < c.Queue.InitialIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "queue.max_interval_ms",
			Value:   c.Queue.MaxIntervalMs,
			Message: "must be at least queue.initial_interval_ms",
		})
	}
	if c.Queue.MaxElapsedSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "queue.max_elapsed_seconds",
			Value:   c.Queue.MaxElapsedSeconds,
			Message: "must be non-negative (0 = no limit)",
		})
	}

	return errors
}
