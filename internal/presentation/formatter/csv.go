package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
)

type CSVFormatter struct {
	w io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{w: w}
}

// Format writes one row per plotted point
func (f *CSVFormatter) Format(snap Snapshot) error {
	w := csv.NewWriter(f.w)

	if err := w.Write([]string{"trace", "time", "value"}); err != nil {
		return err
	}
	for _, p := range snap.Plots {
		for i := range p.X {
			if i >= len(p.Y) {
				break
			}
			record := []string{
				p.Label,
				strconv.FormatFloat(p.X[i], 'g', -1, 64),
				strconv.FormatFloat(p.Y[i], 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
