package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

// CSVExt is the extension picked up when scanning directories
const CSVExt = ".csv"

// FileScanner finds CSV files under a directory
type FileScanner struct {
	baseDir   string
	extension string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:   baseDir,
		extension: CSVExt,
	}
}

// Scan walks the directory and returns all .csv file paths in lexical order
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug("Start scanning directory", util.F("dir", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug("Skip file (error)", util.F("path", path), util.F("error", err.Error()))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if strings.EqualFold(filepath.Ext(path), s.extension) {
			files = append(files, path)
		}
		return nil
	})

	util.LogDebug("File scan completed",
		util.F("duration", time.Since(start).String()),
		util.F("dirs", dirCount), util.F("files", totalCount), util.F("found", len(files)))

	sort.Strings(files)
	return files, err
}

// Resolve expands command-line arguments into the file set to load.
// Directories contribute their .csv files, glob patterns their matches,
// and anything else is taken as a file path even if it does not exist yet.
// The result is de-duplicated and keeps argument order.
func Resolve(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		out = append(out, clean)
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				util.LogWarnf("Pattern %q matched no files", arg)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			files, err := NewFileScanner(arg).Scan()
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
			}
			for _, f := range files {
				add(f)
			}
			continue
		}
		add(arg)
	}
	return out, nil
}
