package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-scope-monitor/internal/testing/fixtures"
)

// resetFlags restores every flag of the command tree to its default
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmds := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range cmds {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	// keep logs out of the home directory
	t.Setenv("SCOPE_LOG_FILE", filepath.Join(t.TempDir(), "app.log"))
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"home directory expansion", "~/test/path", filepath.Join(home, "test/path")},
		{"absolute path unchanged", "/absolute/path", "/absolute/path"},
		{"relative path converted to absolute", "relative/path", filepath.Join(cwd, "relative/path")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")
	require.NoError(t, ensureDir(testDir))

	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCommandStructure(t *testing.T) {
	assert.Equal(t, "go-scope-monitor [files or dirs...]", rootCmd.Use)

	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "snapshot")
	assert.Contains(t, names, "generate")

	for _, flag := range []string{"config", "debug", "window", "time-step-ms", "trigger", "follow",
		"realtime", "refresh-interval-ms", "max-points", "history-capacity"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "table", snapshotCmd.Flags().Lookup("output").DefValue)
	assert.Equal(t, "sine", generateCmd.Flags().Lookup("signal").DefValue)
}

func TestRootCommand_NoFiles(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestSnapshotCommand_Table(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	path, err := g.GenerateIndexed("ch1.csv", []float64{1, 2, 3, 4})
	require.NoError(t, err)

	out, err := execute(t, "snapshot", path, "--window", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "live view")
	assert.Contains(t, out, "ch1.csv")
	assert.Contains(t, out, "┌")
}

func TestSnapshotCommand_JSONHistory(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := g.GenerateTimestamped("a.csv", start, 100*time.Millisecond, []float64{1, 5, 2})
	require.NoError(t, err)
	b, err := g.GenerateIndexed("b.csv", []float64{9, 8})
	require.NoError(t, err)

	out, err := execute(t, "snapshot", a, b, "-o", "json", "--view", "history", "--sort", "peak", "--desc")
	require.NoError(t, err)

	var decoded struct {
		View   string `json:"view"`
		Traces []struct {
			Label string    `json:"label"`
			Y     []float64 `json:"y"`
		} `json:"traces"`
	}
	require.NoError(t, sonic.UnmarshalString(out, &decoded))
	assert.Equal(t, "history", decoded.View)
	require.Len(t, decoded.Traces, 2)
	assert.Equal(t, "b.csv", decoded.Traces[0].Label)
	assert.Equal(t, []float64{1, 5, 2}, decoded.Traces[1].Y)
}

func TestSnapshotCommand_CSVToFile(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	path, err := g.GenerateRaw("v.csv", "value", "1", "2")
	require.NoError(t, err)
	dest := filepath.Join(t.TempDir(), "points.csv")

	out, err := execute(t, "snapshot", path, "-o", "csv", "--out", dest, "--window", "1")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"trace,time,value", "v.csv,0,1", "v.csv,0.001,2"}, lines)
}

func TestSnapshotCommand_SVG(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	path, err := g.GenerateIndexed("s.csv", []float64{0, 1, 0})
	require.NoError(t, err)
	dest := filepath.Join(t.TempDir(), "chart")

	out, err := execute(t, "snapshot", path, "-o", "svg", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved "+dest+".svg")
	_, err = os.Stat(dest + ".svg")
	assert.NoError(t, err)
}

func TestSnapshotCommand_Errors(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	path, err := g.GenerateIndexed("e.csv", []float64{1})
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"snapshot", path, "-o", "xml"}},
		{"unknown view", []string{"snapshot", path, "--view", "spectrum"}},
		{"unknown sort", []string{"snapshot", path, "--sort", "color"}},
		{"invalid window", []string{"snapshot", path, "--window", "-1"}},
		{"no files", []string{"snapshot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSnapshotCommand_MissingFileStillPrints(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	out, err := execute(t, "snapshot", missing, "-o", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Traces:      1")
}

func TestGenerateCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "gen.csv")

	out, err := execute(t, "generate", dest, "--rate", "200", "--duration", "30ms", "--header", "--no-timestamp", "--signal", "ramp")
	require.NoError(t, err)
	assert.Contains(t, out, "samples to "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "index,value", lines[0])
	assert.Equal(t, "0,0.00000", lines[1])
}

func TestGenerateCommand_BadSignal(t *testing.T) {
	_, err := execute(t, "generate", filepath.Join(t.TempDir(), "g.csv"), "--signal", "square", "--duration", "1ms")
	assert.Error(t, err)
}
