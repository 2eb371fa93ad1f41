package formatter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// Snapshot is one frame's view as seen by an output format
type Snapshot struct {
	Tab   model.ViewTab
	Frame model.Frame
	Plots []model.PlotData // the tab's plots, in display order
}

// NewSnapshot picks the plots of tab from frame
func NewSnapshot(frame model.Frame, tab model.ViewTab) Snapshot {
	plots := frame.Live
	if tab == model.TabHistory {
		plots = frame.History
	}
	out := make([]model.PlotData, len(plots))
	copy(out, plots)
	return Snapshot{Tab: tab, Frame: frame, Plots: out}
}

// Range returns the time range shown by the snapshot's tab
func (s Snapshot) Range() (float64, float64) {
	if s.Tab == model.TabHistory {
		return 0, s.Frame.View.MaxTime
	}
	return s.Frame.LiveStart, s.Frame.LiveEnd
}

// TraceSummary is the per-trace statistics row of a snapshot
type TraceSummary struct {
	Trace     string  `json:"trace"`
	Label     string  `json:"label"`
	Points    int     `json:"points"`
	Total     int     `json:"total"`
	Stride    int     `json:"stride"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Shift     float64 `json:"shift"`
	Triggered bool    `json:"triggered"`
}

// Summarize computes per-trace statistics over the plotted points
func Summarize(plots []model.PlotData) []TraceSummary {
	out := make([]TraceSummary, 0, len(plots))
	for _, p := range plots {
		s := TraceSummary{
			Trace:     p.TraceID,
			Label:     p.Label,
			Points:    len(p.X),
			Total:     p.Total,
			Stride:    p.Stride,
			Shift:     p.Shift,
			Triggered: p.Triggered,
		}
		if len(p.X) > 0 {
			s.Start = floats.Min(p.X)
			s.End = floats.Max(p.X)
			s.Min = floats.Min(p.Y)
			s.Max = floats.Max(p.Y)
			s.Mean = stat.Mean(p.Y, nil)
		}
		out = append(out, s)
	}
	return out
}

// Formatter writes a snapshot in one output format
type Formatter interface {
	Format(snap Snapshot) error
}

// Names lists the text output formats
var Names = []string{"table", "summary", "json", "csv"}

// NewFormatter returns the formatter for name writing to w
func NewFormatter(name string, w Writer) (Formatter, error) {
	switch name {
	case "table", "":
		return NewTableFormatter(w), nil
	case "summary":
		return NewSummaryFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}
