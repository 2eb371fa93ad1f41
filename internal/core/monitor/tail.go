package monitor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/data/parser"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// TailState is everything needed to continue reading a file from where the
// last read stopped. The initial load fills it and hands it to the file monitor,
// which owns it from then on.
type TailState struct {
	Path        string
	Offset      int64
	Inode       uint64
	Fingerprint string

	parser  *parser.Parser
	deriver *Deriver
}

// Batch is the result of one read that produced new content
type Batch struct {
	Samples     []model.Sample
	Fingerprint string
	Offset      int64
}

// NewTailState creates a state positioned at the start of path
func NewTailState(path string) *TailState {
	return &TailState{
		Path:    path,
		parser:  parser.NewParser(),
		deriver: NewDeriver(),
	}
}

// Schema returns the file's detected CSV schema
func (s *TailState) Schema() parser.Schema {
	return s.parser.Schema()
}

// Timestamped reports whether the file's samples use real timestamps
func (s *TailState) Timestamped() bool {
	return s.deriver.Timestamped()
}

// Next reads the complete lines appended since the last read and derives
// samples with the given synthetic step (seconds). changed is false when
// nothing new was read or the same file region was read again unchanged.
func (s *TailState) Next(step float64) (batch Batch, changed bool, err error) {
	rows, start, err := s.read()
	if err != nil || len(rows) == 0 {
		return Batch{}, false, err
	}

	fingerprint := Fingerprint(start, s.Offset, rows)
	if fingerprint == s.Fingerprint {
		util.LogDebugf("Unchanged content in %s (fingerprint %s)", s.Path, fingerprint)
		return Batch{}, false, nil
	}
	s.Fingerprint = fingerprint

	samples := s.deriver.Derive(rows, step)
	if len(samples) == 0 {
		return Batch{}, false, nil
	}
	return Batch{Samples: samples, Fingerprint: fingerprint, Offset: s.Offset}, true, nil
}

// read parses the complete lines after the offset. start is the offset the
// rows were read from.
func (s *TailState) read() (rows []model.Row, start int64, err error) {
	info, err := util.GetFileInfo(s.Path)
	if err != nil {
		return nil, s.Offset, &FileReadError{Path: s.Path, Err: err}
	}

	if info.Replaced(s.Inode, s.Offset) {
		util.LogWarn("File truncated or replaced, reading from start",
			util.F("path", s.Path), util.F("offset", s.Offset), util.F("size", info.Size))
		s.Offset = 0
		s.parser.Reset()
	}
	s.Inode = info.Inode
	start = s.Offset

	if info.Size == 0 {
		return nil, start, &EmptyFileError{Path: s.Path}
	}
	if info.Size == s.Offset {
		return nil, start, nil
	}

	data, err := readRange(s.Path, s.Offset, info.Size-s.Offset)
	if err != nil {
		return nil, start, &FileReadError{Path: s.Path, Err: err}
	}

	rows, consumed, err := s.parser.ParseChunk(data)
	s.Offset += int64(consumed)
	if err != nil {
		if errors.Is(err, parser.ErrNoRows) {
			return nil, start, &ParseError{Path: s.Path, Err: err}
		}
		return nil, start, &FileReadError{Path: s.Path, Err: err}
	}
	return rows, start, nil
}

func readRange(path string, offset, length int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to %d: %w", offset, err)
	}
	return io.ReadAll(io.LimitReader(file, length))
}
