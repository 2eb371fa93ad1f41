package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// LayoutParam carries what a layout needs besides the frame
type LayoutParam struct {
	Width  int
	Height int
	Color  bool
	State  model.InteractionState
}

// LayoutStrategy defines the interface for different view layouts
type LayoutStrategy interface {
	Render(frame model.Frame, param LayoutParam) []string
	GetName() string
}

// GetLayoutStrategy returns the layout for a view tab
func GetLayoutStrategy(tab model.ViewTab) LayoutStrategy {
	if tab == model.TabHistory {
		return &HistoryLayoutStrategy{}
	}
	return &LiveLayoutStrategy{}
}

// LiveLayoutStrategy draws the visible window of every trace
type LiveLayoutStrategy struct{}

func (s *LiveLayoutStrategy) GetName() string { return "live" }

func (s *LiveLayoutStrategy) Render(frame model.Frame, param LayoutParam) []string {
	return renderChart(frame, frame.Live, frame.LiveStart, frame.LiveEnd, param)
}

// HistoryLayoutStrategy draws each trace's history over [0, max_time]
type HistoryLayoutStrategy struct{}

func (s *HistoryLayoutStrategy) GetName() string { return "history" }

func (s *HistoryLayoutStrategy) Render(frame model.Frame, param LayoutParam) []string {
	return renderChart(frame, frame.History, 0, frame.View.MaxTime, param)
}

// header + separator + axis line + legend + status
const chromeLines = 7

func renderChart(frame model.Frame, plots []model.PlotData, x0, x1 float64, param LayoutParam) []string {
	sizer := sharedSizer
	width := max(param.Width, minWidth)
	height := max(param.Height, minHeight)

	lines := []string{header(frame, param), util.FormatSectionSeparator(width)}

	yLabelTop := fmt.Sprintf("%.3g", frame.YMax)
	yLabelBottom := "0"
	labelWidth := max(len(yLabelTop), len(yLabelBottom)) + 1
	chartWidth := width - labelWidth - 1
	chartHeight := height - chromeLines - len(plots)
	chartHeight = max(chartHeight, 4)

	canvas := NewCanvas(chartWidth, chartHeight, x0, x1, yFloor(plots), frame.YMax)
	for i, p := range plots {
		canvas.Plot(i, p.X, p.Y)
	}
	for row, text := range canvas.Rows(param.Color) {
		label := ""
		switch row {
		case 0:
			label = yLabelTop
		case chartHeight - 1:
			label = yLabelBottom
		}
		lines = append(lines, sizer.PadString(label, labelWidth, false)+"|"+text)
	}

	left := util.FormatSeconds(x0)
	right := util.FormatSeconds(x1)
	axis := strings.Repeat(" ", labelWidth) + "+" + strings.Repeat("-", chartWidth)
	lines = append(lines, axis)
	gap := chartWidth - util.GetDisplayWidth(left) - util.GetDisplayWidth(right)
	lines = append(lines, strings.Repeat(" ", labelWidth+1)+left+strings.Repeat(" ", max(gap, 1))+right)

	for i, p := range plots {
		lines = append(lines, legendLine(i, p, param.Color))
	}
	if len(plots) == 0 {
		lines = append(lines, util.Colorize(util.ColorDim, "No files loaded"))
	}
	return lines
}

func header(frame model.Frame, param LayoutParam) string {
	v := frame.View
	flags := []string{}
	if v.Paused {
		flags = append(flags, "PAUSED")
	}
	if v.Follow {
		flags = append(flags, "FOLLOW")
	}
	if v.Monitoring {
		flags = append(flags, "LIVE")
	}
	trigger := "off"
	if v.TriggerLevel != 0 {
		trigger = fmt.Sprintf("%.4g", v.TriggerLevel)
	}

	title := "SCOPE " + strings.ToUpper(param.State.Tab.String())
	if param.Color {
		title = util.FormatHeaderTitle(title)
	}
	return fmt.Sprintf("%s  window %s  pos %s  max %s  step %s  trig %s  queued %d  %s",
		title,
		util.FormatSeconds(v.WindowSize),
		util.FormatSeconds(v.XPosition),
		util.FormatSeconds(v.MaxTime),
		util.FormatSeconds(v.TimeStep),
		trigger,
		frame.Pending,
		strings.Join(flags, " "))
}

func legendLine(i int, p model.PlotData, color bool) string {
	marker := string(Glyph(i))
	if color {
		marker = util.Colorize(util.TraceColor(i), marker)
	}
	line := fmt.Sprintf("%s %s  %d/%d pts", marker, p.Label, len(p.X), p.Total)
	if p.Stride > 1 {
		line += fmt.Sprintf("  stride %d", p.Stride)
	}
	if p.Triggered {
		line += fmt.Sprintf("  trig@%s", util.FormatSeconds(p.Shift))
	}
	return line
}

// yFloor is 0 unless some plotted value is negative
func yFloor(plots []model.PlotData) float64 {
	floor := 0.0
	for _, p := range plots {
		for _, y := range p.Y {
			floor = math.Min(floor, y)
		}
	}
	return floor
}
