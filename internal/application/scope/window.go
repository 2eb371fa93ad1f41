package scope

import (
	"math"

	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// series is read-only indexed access to a trace's samples in time order
type series interface {
	Len() int
	At(i int) model.Sample
}

type sampleSlice []model.Sample

func (s sampleSlice) Len() int               { return len(s) }
func (s sampleSlice) At(i int) model.Sample { return s[i] }

// stride returns the decimation stride keeping at most limit of n points
func stride(n, limit int) int {
	if limit <= 0 || n <= limit {
		return 1
	}
	return (n + limit - 1) / limit
}

// plotOptions controls how a series becomes plot data
type plotOptions struct {
	limit    int
	trigger  float64
	windowed bool
	lo, hi   float64
}

// buildPlot decimates s, aligns it to the trigger level and, when windowed,
// keeps the points inside [lo, hi].
func buildPlot(id, label string, s series, opts plotOptions) model.PlotData {
	n := s.Len()
	plot := model.PlotData{TraceID: id, Label: label, Total: n, Stride: stride(n, opts.limit)}
	if n == 0 {
		return plot
	}

	if opts.trigger != 0 {
		for i := 0; i < n; i += plot.Stride {
			sample := s.At(i)
			if sample.Value >= opts.trigger {
				plot.Shift = sample.Time
				plot.Triggered = true
				break
			}
		}
	}

	count := (n + plot.Stride - 1) / plot.Stride
	plot.X = make([]float64, 0, count)
	plot.Y = make([]float64, 0, count)
	for i := 0; i < n; i += plot.Stride {
		sample := s.At(i)
		x := sample.Time - plot.Shift
		if opts.windowed && (x < opts.lo || x > opts.hi) {
			continue
		}
		plot.X = append(plot.X, x)
		plot.Y = append(plot.Y, sample.Value)
	}
	return plot
}

// clampWindow enforces window_size <= max_time and keeps x_position inside
// [0, max_time - window_size]. Follow mode pins the window to the newest data.
func clampWindow(view *model.ViewState) {
	if view.WindowSize > view.MaxTime {
		view.WindowSize = view.MaxTime
	}
	if view.WindowSize <= 0 {
		view.WindowSize = math.Min(constants.MinWindowSize, view.MaxTime)
	}

	maxPos := math.Max(0, view.MaxTime-view.WindowSize)
	if view.Follow {
		view.XPosition = maxPos
	}
	view.XPosition = math.Max(0, math.Min(view.XPosition, maxPos))
}

// liveRange returns the visible window [x_position, min(x_position + window_size, max_time)]
func liveRange(view model.ViewState) (float64, float64) {
	return view.XPosition, math.Min(view.XPosition+view.WindowSize, view.MaxTime)
}

// yMax is the vertical autoscale bound
func yMax(maxValue float64) float64 {
	if maxValue > 0 {
		return maxValue * constants.YHeadroom
	}
	return 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
