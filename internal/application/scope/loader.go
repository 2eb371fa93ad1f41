package scope

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. SCOPE_WINDOW=0.5
	EnvPrefix = "SCOPE_"

	// DefaultConfigFile is looked up in the working directory
	DefaultConfigFile = "go-scope-monitor.yaml"
)

// LoadConfig builds the configuration from defaults, the config file,
// SCOPE_ environment variables and explicitly set flags, in increasing
// precedence. It returns the config file used, if any.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"refresh_interval_ms": defaults.RefreshIntervalMS,
		"poll_interval_ms":    defaults.PollIntervalMS,
		"error_backoff_ms":    defaults.ErrorBackoffMS,
		"drain_budget_ms":     defaults.DrainBudgetMS,
		"history_capacity":    defaults.HistoryCapacity,
		"max_points":          defaults.MaxPoints,
		"queue_capacity":      defaults.QueueCapacity,
		"window":              defaults.Window,
		"time_step_ms":        defaults.TimeStepMS,
		"trigger":             defaults.Trigger,
		"follow":              defaults.Follow,
		"realtime":            defaults.Realtime,
		"debug":               defaults.Debug,
		"log_level":           defaults.LogLevel,
		"log_file":            defaults.LogFile,
		"log_format":          defaults.LogFormat,
		"snapshot_dir":        defaults.SnapshotDir,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// SCOPE_TIME_STEP_MS -> time_step_ms
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, used, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultConfigFile, "go-scope-monitor.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
