package scope

import (
	"fmt"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/constants"
)

// Config contains configuration for the scope viewer and snapshot commands
type Config struct {
	// Refresh settings (milliseconds)
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`
	PollIntervalMS    int `koanf:"poll_interval_ms"`
	ErrorBackoffMS    int `koanf:"error_backoff_ms"`
	DrainBudgetMS     int `koanf:"drain_budget_ms"`

	// Capacities
	HistoryCapacity int `koanf:"history_capacity"`
	MaxPoints       int `koanf:"max_points"`
	QueueCapacity   int `koanf:"queue_capacity"`

	// Initial view state
	Window     float64 `koanf:"window"`
	TimeStepMS float64 `koanf:"time_step_ms"`
	Trigger    float64 `koanf:"trigger"`
	Follow     bool    `koanf:"follow"`
	Realtime   bool    `koanf:"realtime"`

	// Logging
	Debug     bool   `koanf:"debug"`
	LogLevel  string `koanf:"log_level"`
	LogFile   string `koanf:"log_file"`
	LogFormat string `koanf:"log_format"`

	// Directory for snapshots saved from the viewer
	SnapshotDir string `koanf:"snapshot_dir"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		RefreshIntervalMS: int(constants.RefreshInterval / time.Millisecond),
		PollIntervalMS:    int(constants.PollInterval / time.Millisecond),
		ErrorBackoffMS:    int(constants.ErrorBackoff / time.Millisecond),
		DrainBudgetMS:     int(constants.DrainBudget / time.Millisecond),
		HistoryCapacity:   constants.HistoryCapacity,
		MaxPoints:         constants.MaxDisplayPoints,
		QueueCapacity:     constants.QueueCapacity,
		Window:            constants.DefaultWindowSize,
		TimeStepMS:        constants.DefaultTimeStepMS,
		Follow:            true,
		LogLevel:          "info",
		LogFile:           "~/.go-scope-monitor/logs/app.log",
		LogFormat:         "text",
		SnapshotDir:       ".",
	}
}

// Validate fills unset values with defaults and rejects out-of-range ones
func (c *Config) Validate() error {
	defaults := DefaultConfig()

	ints := []struct {
		name  string
		value *int
		def   int
	}{
		{"refresh_interval_ms", &c.RefreshIntervalMS, defaults.RefreshIntervalMS},
		{"poll_interval_ms", &c.PollIntervalMS, defaults.PollIntervalMS},
		{"error_backoff_ms", &c.ErrorBackoffMS, defaults.ErrorBackoffMS},
		{"drain_budget_ms", &c.DrainBudgetMS, defaults.DrainBudgetMS},
		{"history_capacity", &c.HistoryCapacity, defaults.HistoryCapacity},
		{"max_points", &c.MaxPoints, defaults.MaxPoints},
		{"queue_capacity", &c.QueueCapacity, defaults.QueueCapacity},
	}
	for _, field := range ints {
		if *field.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", field.name, *field.value)
		}
		if *field.value == 0 {
			*field.value = field.def
		}
	}

	if c.Window < 0 {
		return fmt.Errorf("window must not be negative, got %g", c.Window)
	}
	if c.Window == 0 {
		c.Window = defaults.Window
	}
	if c.TimeStepMS < 0 {
		return fmt.Errorf("time_step_ms must not be negative, got %g", c.TimeStepMS)
	}
	if c.TimeStepMS == 0 {
		c.TimeStepMS = defaults.TimeStepMS
	}

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = defaults.SnapshotDir
	}
	return nil
}

// RefreshInterval returns the refresh cycle period
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// PollInterval returns the file monitor poll period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ErrorBackoff returns the file monitor retry delay after a failure
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffMS) * time.Millisecond
}

// DrainBudget returns the wall-clock budget for draining the update queue
func (c *Config) DrainBudget() time.Duration {
	return time.Duration(c.DrainBudgetMS) * time.Millisecond
}

// TimeStep returns the synthetic sampling interval in seconds
func (c *Config) TimeStep() float64 {
	return c.TimeStepMS / 1000
}
