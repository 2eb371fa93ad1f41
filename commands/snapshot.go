package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-scope-monitor/internal/application/scope"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/data/scanner"
	"github.com/penwyp/go-scope-monitor/internal/presentation/export"
	"github.com/penwyp/go-scope-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-scope-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

var (
	snapshotOutput string
	snapshotOut    string
	snapshotView   string
	snapshotSort   string
	snapshotDesc   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [files or dirs...]",
	Short: "Load files once and print the resulting view",
	Long: `Loads the files, runs one refresh cycle and prints the live or history view
without starting the interactive viewer.

Examples:
  go-scope-monitor snapshot ch1.csv                       # Per-trace table
  go-scope-monitor snapshot ch1.csv -o json               # Frame as JSON
  go-scope-monitor snapshot ch1.csv -o csv --view history # Plotted history points
  go-scope-monitor snapshot ./captures -o svg --out a.svg # SVG chart`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "table",
		"Output format (table, summary, json, csv, svg)")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "",
		"Write to a file instead of stdout (svg defaults to scope.svg)")
	snapshotCmd.Flags().StringVar(&snapshotView, "view", "live",
		"View to print (live, history)")
	snapshotCmd.Flags().StringVar(&snapshotSort, "sort", "load",
		"Trace order (load, label, points, peak)")
	snapshotCmd.Flags().BoolVar(&snapshotDesc, "desc", false,
		"Sort in descending order")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Realtime = false

	tab, err := parseView(snapshotView)
	if err != nil {
		return err
	}
	field, err := interaction.ParseSortField(snapshotSort)
	if err != nil {
		return err
	}

	files, err := scanner.Resolve(args)
	if err != nil {
		return err
	}

	engine, err := scope.NewEngine(scope.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.LoadFiles(files); err != nil {
		// readable files are still shown
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	snap := formatter.NewSnapshot(engine.Refresh(), tab)
	order := interaction.SortAscending
	if snapshotDesc {
		order = interaction.SortDescending
	}
	interaction.NewTraceSorter(field, order).Sort(snap.Plots)

	if snapshotOutput == "svg" {
		out := snapshotOut
		if out == "" {
			out = "scope.svg"
		}
		path, err := export.SaveSVG(snap, export.SnapshotOptions{Path: out})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if snapshotOut != "" {
		file, err := os.Create(snapshotOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	f, err := formatter.NewFormatter(snapshotOutput, w)
	if err != nil {
		return err
	}
	if err := f.Format(snap); err != nil {
		return fmt.Errorf("failed to write %s output: %w", snapshotOutput, err)
	}
	util.LogDebug("Snapshot written", util.F("format", snapshotOutput), util.F("traces", len(snap.Plots)))
	return nil
}

func parseView(name string) (model.ViewTab, error) {
	switch name {
	case "live", "":
		return model.TabLive, nil
	case "history":
		return model.TabHistory, nil
	}
	return model.TabLive, fmt.Errorf("unknown view %q (want live or history)", name)
}
