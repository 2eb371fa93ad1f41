package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-scope-monitor/internal/application/scope"
	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/data/scanner"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

var (
	// Configuration and logging
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "go-scope-monitor [files or dirs...]",
		Short: "Real-time oscilloscope viewer for CSV traces",
		Long: `go-scope-monitor plots CSV sample files in the terminal and keeps the plot
current while other programs append to them.

Each file becomes one trace. Rows are "timestamp,value", "index,value" or a bare
value; files without usable timestamps are placed on a synthetic clock of one
time step per row.

Examples:
  go-scope-monitor ch1.csv ch2.csv                 # Plot two files
  go-scope-monitor ./captures --realtime           # Plot every CSV in a directory and tail it
  go-scope-monitor data.csv --trigger 0.5          # Align traces on the first value >= 0.5
  go-scope-monitor data.csv --time-step-ms 0.1     # 10 kHz synthetic clock`,
		Args: cobra.ArbitraryArgs,
		RunE: runViewer,
	}
)

const defaultLogFile = "~/.go-scope-monitor/logs/app.log"

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "",
		"Config file (default ./"+scope.DefaultConfigFile+")")
	flags.BoolVar(&debug, "debug", false,
		"Enable debug logging to stderr")

	// View state
	flags.Float64("window", constants.DefaultWindowSize,
		"Visible time span in seconds")
	flags.Float64("time-step-ms", constants.DefaultTimeStepMS,
		"Synthetic sampling interval in milliseconds")
	flags.Float64("trigger", 0,
		"Trigger level (0 disables trigger alignment)")
	flags.Bool("follow", true,
		"Keep the window pinned to the newest data")
	flags.Bool("realtime", false,
		"Keep reading the files as they grow")

	// Refresh cycle
	flags.Int("refresh-interval-ms", int(constants.RefreshInterval.Milliseconds()),
		"Refresh cycle period in milliseconds")
	flags.Int("max-points", constants.MaxDisplayPoints,
		"Maximum plotted points per trace")
	flags.Int("history-capacity", constants.HistoryCapacity,
		"Samples kept per trace in the history view")
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	files, err := scanner.Resolve(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files: pass one or more CSV files or directories")
	}

	orchestrator, err := scope.NewOrchestrator(cfg, files)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return orchestrator.Run(ctx)
}

// loadConfig layers defaults, the config file, SCOPE_ variables and the
// command's explicitly set flags, then initializes logging from the result
func loadConfig(cmd *cobra.Command) (*scope.Config, error) {
	cfg, used, err := scope.LoadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	if used != "" {
		util.LogInfof("Loaded config file %s", used)
	}
	return cfg, nil
}

func initLogging(cfg *scope.Config) error {
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}

	logFile := expandPath(cfg.LogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return util.InitLogger(util.LoggerOptions{
		Level:          level,
		File:           logFile,
		Format:         util.LogFormat(cfg.LogFormat),
		DebugToConsole: cfg.Debug,
	})
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
