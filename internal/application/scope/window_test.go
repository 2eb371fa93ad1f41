package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

func ramp(values ...float64) sampleSlice {
	s := make(sampleSlice, len(values))
	for i, v := range values {
		s[i] = model.Sample{Time: float64(i), Value: v, Index: int64(i), Synthetic: true}
	}
	return s
}

func TestStride(t *testing.T) {
	tests := []struct {
		n, limit, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25000, 10000, 3},
		{30000, 10000, 3},
		{30001, 10000, 4},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stride(tt.n, tt.limit), "n=%d limit=%d", tt.n, tt.limit)
	}
}

func TestBuildPlot(t *testing.T) {
	s := ramp(0, 0, 5, 3, 0, 6)

	tests := []struct {
		name string
		opts plotOptions
		x    []float64
		y    []float64
	}{
		{
			name: "plain",
			opts: plotOptions{},
			x:    []float64{0, 1, 2, 3, 4, 5},
			y:    []float64{0, 0, 5, 3, 0, 6},
		},
		{
			name: "trigger shifts to first crossing",
			opts: plotOptions{trigger: 4},
			x:    []float64{-2, -1, 0, 1, 2, 3},
			y:    []float64{0, 0, 5, 3, 0, 6},
		},
		{
			name: "windowed after shift",
			opts: plotOptions{trigger: 4, windowed: true, lo: 0, hi: 2},
			x:    []float64{0, 1, 2},
			y:    []float64{5, 3, 0},
		},
		{
			name: "trigger searched among decimated points",
			opts: plotOptions{limit: 3, trigger: 4},
			x:    []float64{-2, 0, 2},
			y:    []float64{0, 5, 0},
		},
		{
			name: "negative trigger",
			opts: plotOptions{trigger: -1},
			x:    []float64{0, 1, 2, 3, 4, 5},
			y:    []float64{0, 0, 5, 3, 0, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plot := buildPlot("id", "label", s, tt.opts)
			assert.Equal(t, tt.x, plot.X)
			assert.Equal(t, tt.y, plot.Y)
			assert.Equal(t, 6, plot.Total)
		})
	}
}

func TestBuildPlot_Empty(t *testing.T) {
	plot := buildPlot("id", "label", sampleSlice{}, plotOptions{trigger: 1})
	assert.Empty(t, plot.X)
	assert.False(t, plot.Triggered)
	assert.Equal(t, 1, plot.Stride)
}

func TestBuildPlot_NeverExceedsLimit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 5000).Draw(rt, "n")
		limit := rapid.IntRange(1, 1000).Draw(rt, "limit")
		s := make(sampleSlice, n)
		for i := range s {
			s[i] = model.Sample{Time: float64(i), Value: float64(i % 13)}
		}
		plot := buildPlot("id", "label", s, plotOptions{limit: limit})
		if len(plot.X) > limit {
			rt.Fatalf("%d points exceed limit %d", len(plot.X), limit)
		}
		if n > 0 && plot.X[0] != 0 {
			rt.Fatalf("first point %v, want 0", plot.X[0])
		}
	})
}

func TestClampWindow(t *testing.T) {
	tests := []struct {
		name     string
		view     model.ViewState
		wantSize float64
		wantPos  float64
	}{
		{"window larger than data", model.ViewState{WindowSize: 5, XPosition: 1, MaxTime: 2}, 2, 0},
		{"position past end", model.ViewState{WindowSize: 1, XPosition: 3, MaxTime: 2}, 1, 1},
		{"negative position", model.ViewState{WindowSize: 1, XPosition: -1, MaxTime: 2}, 1, 0},
		{"follow pins to end", model.ViewState{WindowSize: 0.5, XPosition: 0, MaxTime: 2, Follow: true}, 0.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.view
			clampWindow(&v)
			assert.Equal(t, tt.wantSize, v.WindowSize)
			assert.Equal(t, tt.wantPos, v.XPosition)
		})
	}
}

func TestLiveRangeAndYMax(t *testing.T) {
	start, end := liveRange(model.ViewState{XPosition: 0.5, WindowSize: 1, MaxTime: 1.2})
	assert.Equal(t, 0.5, start)
	assert.Equal(t, 1.2, end)

	assert.InDelta(t, 11.0, yMax(10), 1e-12)
	assert.Equal(t, 1.0, yMax(0))
	assert.Equal(t, 1.0, yMax(-4))
}
