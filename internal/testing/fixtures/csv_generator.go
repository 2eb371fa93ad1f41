package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/data/writer"
)

// TestDataGenerator writes CSV capture files for tests
type TestDataGenerator struct {
	baseDir string
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
	}
}

// Path returns the location of a fixture file
func (g *TestDataGenerator) Path(name string) string {
	return filepath.Join(g.baseDir, name)
}

// GenerateTimestamped writes a "timestamp,value" file with samples spaced by interval
func (g *TestDataGenerator) GenerateTimestamped(name string, start time.Time, interval time.Duration, values []float64) (string, error) {
	path := g.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	err := writer.SaveSamples(path, values, writer.WriteOptions{
		Timestamps: true,
		Header:     true,
		Start:      start,
		Interval:   interval,
	})
	return path, err
}

// GenerateIndexed writes a headerless "index,value" file
func (g *TestDataGenerator) GenerateIndexed(name string, values []float64) (string, error) {
	path := g.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, writer.SaveSamples(path, values, writer.WriteOptions{})
}

// GenerateRaw writes lines verbatim, one per element, each terminated by a newline
func (g *TestDataGenerator) GenerateRaw(name string, lines ...string) (string, error) {
	path := g.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return path, os.WriteFile(path, []byte(b.String()), 0644)
}

// GenerateNoisy writes a timestamped file mixed with malformed lines, a row
// without a timestamp and a trailing partial line. It returns the number of
// rows a parser should accept.
func (g *TestDataGenerator) GenerateNoisy(name string, start time.Time) (string, int, error) {
	path := g.Path(name)
	ts := func(i int) string {
		return start.Add(time.Duration(i) * time.Millisecond).UTC().Format(time.RFC3339Nano)
	}
	content := strings.Join([]string{
		"timestamp,value",
		fmt.Sprintf("%s,1.0", ts(0)),
		fmt.Sprintf("%s,not-a-number", ts(1)),
		fmt.Sprintf("%s,2.0", ts(2)),
		"garbage line",
		fmt.Sprintf("%s,3.0", ts(3)),
		",4.0",
		fmt.Sprintf("%s,5.0", ts(5)),
	}, "\n") + "\n" + ts(6) + ",6."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", 0, err
	}
	return path, 5, nil
}

// Append adds raw content to an existing fixture file
func (g *TestDataGenerator) Append(name, content string) error {
	f, err := os.OpenFile(g.Path(name), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
