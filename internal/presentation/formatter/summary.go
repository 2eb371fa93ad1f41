package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

// SummaryFormatter writes the view state and a line per trace
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

// Format writes a plain-text summary of the snapshot
func (f *SummaryFormatter) Format(snap Snapshot) error {
	v := snap.Frame.View
	start, end := snap.Range()

	var b strings.Builder
	fmt.Fprintf(&b, "View:        %s\n", snap.Tab)
	fmt.Fprintf(&b, "Range:       %s .. %s\n", util.FormatSeconds(start), util.FormatSeconds(end))
	fmt.Fprintf(&b, "Window:      %s at %s (max %s)\n", util.FormatSeconds(v.WindowSize), util.FormatSeconds(v.XPosition), util.FormatSeconds(v.MaxTime))
	fmt.Fprintf(&b, "Time step:   %s\n", util.FormatSeconds(v.TimeStep))
	if v.TriggerLevel != 0 {
		fmt.Fprintf(&b, "Trigger:     %s\n", formatValue(v.TriggerLevel))
	} else {
		b.WriteString("Trigger:     off\n")
	}
	fmt.Fprintf(&b, "Peak value:  %s\n", formatValue(v.MaxValue))
	fmt.Fprintf(&b, "Traces:      %d\n", len(snap.Plots))

	for _, s := range Summarize(snap.Plots) {
		fmt.Fprintf(&b, "  %s: %s of %s points, mean %s, range [%s, %s]\n",
			s.Label, formatNumber(s.Points), formatNumber(s.Total),
			formatValue(s.Mean), formatValue(s.Min), formatValue(s.Max))
	}

	_, err := io.WriteString(f.w, b.String())
	return err
}
