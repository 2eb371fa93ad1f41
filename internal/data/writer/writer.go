package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// WriteOptions controls how samples are appended to a CSV file
type WriteOptions struct {
	// Timestamps writes "timestamp,value" rows; otherwise "index,value"
	Timestamps bool
	// Header writes a header line when the file is new or empty
	Header bool
	// Start is the timestamp of the first value, time.Now when zero
	Start time.Time
	// Interval separates consecutive timestamps
	Interval time.Duration
	// Index is the ordinal of the first value in index mode
	Index int64
}

// SaveSamples appends values to path, creating it when missing
func SaveSamples(path string, values []float64, opts WriteOptions) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open csv failed: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv failed: %w", err)
	}

	w := csv.NewWriter(file)
	if opts.Header && info.Size() == 0 {
		header := []string{"index", "value"}
		if opts.Timestamps {
			header[0] = "timestamp"
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write csv failed: %w", err)
		}
	}

	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	for i, v := range values {
		var first string
		if opts.Timestamps {
			first = start.Add(time.Duration(i) * opts.Interval).UTC().Format(time.RFC3339Nano)
		} else {
			first = strconv.FormatInt(opts.Index+int64(i), 10)
		}
		if err := w.Write([]string{first, fmt.Sprintf("%0.5f", v)}); err != nil {
			return fmt.Errorf("write csv failed: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv failed: %w", err)
	}
	return nil
}
