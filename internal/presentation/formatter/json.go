package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// Writer is where formatters write
type Writer = io.Writer

type JSONFormatter struct {
	w io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

type jsonSnapshot struct {
	View      string           `json:"view"`
	State     model.ViewState  `json:"state"`
	Start     float64          `json:"start"`
	End       float64          `json:"end"`
	YMax      float64          `json:"y_max"`
	Pending   int              `json:"pending"`
	Summaries []TraceSummary   `json:"summary"`
	Traces    []model.PlotData `json:"traces"`
}

func (f *JSONFormatter) Format(snap Snapshot) error {
	start, end := snap.Range()
	out := jsonSnapshot{
		View:      snap.Tab.String(),
		State:     snap.Frame.View,
		Start:     start,
		End:       end,
		YMax:      snap.Frame.YMax,
		Pending:   snap.Frame.Pending,
		Summaries: Summarize(snap.Plots),
		Traces:    snap.Plots,
	}
	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.w.Write(data)
	return err
}
