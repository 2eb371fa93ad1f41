package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// ErrNoRows is returned when a chunk holds complete data lines but none of them parse.
var ErrNoRows = errors.New("no parsable rows in chunk")

// Schema describes the column layout of a CSV trace file.
// It is decided by the first non-empty line of the file and kept for every
// later chunk, so appended lines are never mistaken for a header.
type Schema struct {
	Detected     bool
	HasHeader    bool
	Separator    rune
	Columns      int
	TimestampCol int // -1 when the file has no timestamp column
	ValueCol     int
}

// timestampLayouts are tried in order when parsing timestamp fields.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05.999999999",
}

var (
	timestampHeaders = map[string]bool{"timestamp": true, "time": true, "datetime": true, "date": true}
	valueHeaders     = map[string]bool{"value": true, "amplitude": true, "val": true}
)

// Parser incrementally parses CSV chunks of one file.
// A Parser is not safe for concurrent use; each file monitor owns one.
type Parser struct {
	schema  Schema
	skipped int
	rows    int
}

// NewParser creates a parser with an undetected schema
func NewParser() *Parser {
	return &Parser{schema: Schema{TimestampCol: -1}}
}

// Schema returns the detected schema
func (p *Parser) Schema() Schema {
	return p.schema
}

// Skipped returns the number of malformed lines skipped so far
func (p *Parser) Skipped() int {
	return p.skipped
}

// Rows returns the number of rows parsed so far
func (p *Parser) Rows() int {
	return p.rows
}

// Reset forgets the schema, used when the file was truncated or replaced
func (p *Parser) Reset() {
	p.schema = Schema{TimestampCol: -1}
}

// ParseChunk parses every complete line of data. A trailing line without a
// newline is left unconsumed: the writer may still be appending to it.
// consumed is the number of bytes the caller may advance its read offset by.
func (p *Parser) ParseChunk(data []byte) (rows []model.Row, consumed int, err error) {
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, 0, nil
	}
	complete := data[:end+1]
	consumed = end + 1

	if !p.schema.Detected {
		p.schema.Separator = detectSeparator(complete)
	}

	reader := csv.NewReader(bytes.NewReader(complete))
	reader.Comma = p.schema.Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	dataLines := 0
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			var parseErr *csv.ParseError
			if errors.As(readErr, &parseErr) {
				p.skipped++
				dataLines++
				util.LogDebugf("Skip malformed CSV line %d: %v", parseErr.Line, parseErr.Err)
				continue
			}
			return rows, consumed, readErr
		}
		if isBlank(record) {
			continue
		}

		if !p.schema.Detected {
			if p.detect(record) {
				continue
			}
		}

		dataLines++
		row, ok := p.parseRecord(record)
		if !ok {
			p.skipped++
			continue
		}
		rows = append(rows, row)
	}

	p.rows += len(rows)
	if dataLines > 0 && len(rows) == 0 {
		return nil, consumed, ErrNoRows
	}
	return rows, consumed, nil
}

// detect decides the schema from the first record. It returns true when the
// record is a header line.
func (p *Parser) detect(record []string) bool {
	p.schema.Detected = true
	p.schema.Columns = len(record)

	header := false
	for _, field := range record {
		if _, ok := p.parseNumber(field); ok {
			continue
		}
		if _, ok := ParseTimestamp(field); ok {
			continue
		}
		header = true
		break
	}

	if header {
		p.schema.HasHeader = true
		p.schema.TimestampCol = -1
		p.schema.ValueCol = len(record) - 1
		valueNamed := false
		for i, name := range record {
			key := strings.ToLower(strings.TrimSpace(name))
			if timestampHeaders[key] && p.schema.TimestampCol < 0 {
				p.schema.TimestampCol = i
			}
			if valueHeaders[key] && !valueNamed {
				p.schema.ValueCol = i
				valueNamed = true
			}
		}
		return true
	}

	switch {
	case len(record) == 1:
		p.schema.TimestampCol = -1
		p.schema.ValueCol = 0
	default:
		if _, ok := ParseTimestamp(record[0]); ok {
			p.schema.TimestampCol = 0
		} else {
			// frequency/amplitude or index/value: the abscissa is not a time
			p.schema.TimestampCol = -1
		}
		p.schema.ValueCol = 1
	}
	return false
}

func (p *Parser) parseRecord(record []string) (model.Row, bool) {
	if p.schema.ValueCol >= len(record) {
		return model.Row{}, false
	}
	value, ok := p.parseNumber(record[p.schema.ValueCol])
	if !ok {
		return model.Row{}, false
	}

	row := model.Row{Value: value}
	if col := p.schema.TimestampCol; col >= 0 && col < len(record) {
		if ts, ok := ParseTimestamp(record[col]); ok {
			row.Timestamp = ts
			row.HasTimestamp = true
		}
	}
	return row, true
}

func (p *Parser) parseNumber(field string) (float64, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false
	}
	if p.schema.Separator == ';' {
		// semicolon files use a decimal comma
		field = strings.ReplaceAll(field, ",", ".")
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTimestamp parses a timestamp field in one of the supported layouts
func ParseTimestamp(field string) (time.Time, bool) {
	field = strings.TrimSpace(field)
	if len(field) < len("2006-01-02") {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, field); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func detectSeparator(data []byte) rune {
	line := data
	for len(line) > 0 {
		i := bytes.IndexByte(line, '\n')
		first := line
		if i >= 0 {
			first = line[:i]
		}
		if len(bytes.TrimSpace(first)) > 0 {
			switch {
			case bytes.ContainsRune(first, ',') && !bytes.ContainsRune(first, ';'):
				return ','
			case bytes.ContainsRune(first, ';'):
				return ';'
			case bytes.ContainsRune(first, '\t'):
				return '\t'
			}
			return ','
		}
		if i < 0 {
			break
		}
		line = line[i+1:]
	}
	return ','
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
