package scope

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/core/monitor"
)

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func appendCSV(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// valuesCSV writes a headerless single-column file
func valuesCSV(t *testing.T, dir, name string, values ...float64) string {
	t.Helper()
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%g\n", v)
	}
	path := filepath.Join(dir, name)
	writeCSV(t, path, b.String())
	return path
}

func newTestEngine(t *testing.T, configure func(*Config), opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if configure != nil {
		configure(cfg)
	}
	e, err := NewEngine(append([]Option{WithConfig(cfg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func syntheticUpdate(id string, generation uint64, from, to int64) model.PendingUpdate {
	u := model.PendingUpdate{TraceID: id, Generation: generation, Fingerprint: fmt.Sprintf("%d-%d", from, to)}
	for i := from; i < to; i++ {
		u.Samples = append(u.Samples, model.Sample{Index: i, Value: float64(i % 7), Synthetic: true})
	}
	return u
}

func TestNewEngine_Defaults(t *testing.T) {
	e := newTestEngine(t, nil)

	view := e.View()
	assert.Equal(t, 1.0, view.MaxTime)
	assert.Equal(t, 0.1, view.WindowSize)
	assert.Equal(t, 0.001, view.TimeStep)
	assert.True(t, view.Follow)
	assert.False(t, view.Monitoring)

	frame := e.Frame()
	assert.Equal(t, 1.0, frame.YMax)
	assert.Empty(t, frame.Live)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPoints = -1
	_, err := NewEngine(WithConfig(cfg))
	assert.Error(t, err)
}

func TestEngine_TriggerAlignment(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "pulse.csv", 0, 0, 5, 3, 0)

	tests := []struct {
		name      string
		level     float64
		triggered bool
		shift     float64
		y         []float64
	}{
		{"level below peak", 4, true, 0.002, []float64{5, 3, 0}},
		{"level above peak", 10, false, 0, []float64{0, 0, 5, 3, 0}},
		{"disabled", 0, false, 0, []float64{0, 0, 5, 3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			require.NoError(t, e.LoadFiles([]string{path}))
			require.NoError(t, e.SetTrigger(tt.level))

			plot, ok := e.LivePlot(path)
			require.True(t, ok)
			assert.Equal(t, tt.triggered, plot.Triggered)
			assert.InDelta(t, tt.shift, plot.Shift, 1e-12)
			assert.Equal(t, tt.y, plot.Y)
			if tt.triggered {
				assert.InDelta(t, 0, plot.X[0], 1e-12)
			}
		})
	}
}

func TestEngine_Decimation(t *testing.T) {
	dir := t.TempDir()
	values := make([]float64, 25000)
	for i := range values {
		values[i] = float64(i % 100)
	}
	path := valuesCSV(t, dir, "long.csv", values...)

	e := newTestEngine(t, nil)
	require.NoError(t, e.LoadFiles([]string{path}))

	history, ok := e.HistoryPlot(path)
	require.True(t, ok)
	assert.Equal(t, 25000, history.Total)
	assert.Equal(t, 3, history.Stride)
	assert.Len(t, history.X, 8334)
	assert.LessOrEqual(t, len(history.X), 10000)
	assert.Zero(t, history.Shift)

	require.NoError(t, e.SetWindowSize(1000))
	live, ok := e.LivePlot(path)
	require.True(t, ok)
	assert.Len(t, live.X, 8334)
	assert.Equal(t, e.View().MaxTime, e.View().WindowSize)
}

func TestEngine_FollowTracksNewestData(t *testing.T) {
	dir := t.TempDir()
	values := make([]float64, 1001)
	path := valuesCSV(t, dir, "follow.csv", values...)

	q := monitor.NewQueue(8)
	e := newTestEngine(t, nil, WithQueue(q))
	require.NoError(t, e.LoadFiles([]string{path}))

	view := e.View()
	assert.InDelta(t, 1.0, view.MaxTime, 1e-9)
	assert.InDelta(t, 0.9, view.XPosition, 1e-9)

	require.True(t, q.TryPush(syntheticUpdate(path, e.Frame().Generation, 1001, 2001)))
	frame := e.Refresh()
	assert.Equal(t, 1, frame.Applied)
	assert.InDelta(t, 2.0, frame.View.MaxTime, 1e-9)
	assert.InDelta(t, 1.9, frame.View.XPosition, 1e-9)
	assert.InDelta(t, 1.9, frame.LiveStart, 1e-9)
	assert.InDelta(t, 2.0, frame.LiveEnd, 1e-9)

	e.SetFollow(false)
	require.NoError(t, e.SetPosition(0))
	require.True(t, q.TryPush(syntheticUpdate(path, e.Frame().Generation, 2001, 3001)))
	frame = e.Refresh()
	assert.InDelta(t, 3.0, frame.View.MaxTime, 1e-9)
	assert.Zero(t, frame.View.XPosition)
}

func TestEngine_WindowInvariant(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "w.csv", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	rapid.Check(t, func(rt *rapid.T) {
		cfg := DefaultConfig()
		e, err := NewEngine(WithConfig(cfg))
		require.NoError(rt, err)
		defer e.Close()
		require.NoError(rt, e.LoadFiles([]string{path}))

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				_ = e.SetWindowSize(rapid.Float64Range(-1, 1).Draw(rt, "size"))
			case 1:
				_ = e.SetPosition(rapid.Float64Range(-2, 2).Draw(rt, "pos"))
			case 2:
				e.SetFollow(rapid.Bool().Draw(rt, "follow"))
			case 3:
				_ = e.SetTimeStep(rapid.Float64Range(0.01, 10).Draw(rt, "step"))
			}

			frame := e.Frame()
			v := frame.View
			const eps = 1e-9
			if v.WindowSize > v.MaxTime+eps || v.WindowSize <= 0 {
				rt.Fatalf("window %v outside (0, %v]", v.WindowSize, v.MaxTime)
			}
			if v.XPosition < 0 || v.XPosition > v.MaxTime-v.WindowSize+eps {
				rt.Fatalf("position %v outside [0, %v]", v.XPosition, v.MaxTime-v.WindowSize)
			}
			if frame.LiveEnd > v.MaxTime+eps || frame.LiveStart > frame.LiveEnd {
				rt.Fatalf("live range [%v, %v] exceeds max %v", frame.LiveStart, frame.LiveEnd, v.MaxTime)
			}
		}
	})
}

func TestEngine_RefreshIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "idem.csv", 3, 1, 4, 1, 5)

	e := newTestEngine(t, nil)
	require.NoError(t, e.LoadFiles([]string{path}))

	first := e.Refresh()
	second := e.Refresh()
	assert.Equal(t, first.View, second.View)
	assert.Equal(t, first.Live, second.Live)
	assert.Equal(t, first.History, second.History)
	assert.Zero(t, second.Applied)
}

func TestEngine_DuplicateUpdatesMergeOnce(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "dup.csv")

	q := monitor.NewQueue(8)
	e := newTestEngine(t, nil, WithQueue(q))
	require.NoError(t, e.LoadFiles([]string{path}))

	gen := e.Frame().Generation
	require.True(t, q.TryPush(syntheticUpdate(path, gen, 0, 10)))
	require.True(t, q.TryPush(syntheticUpdate(path, gen, 5, 15)))
	e.Refresh()

	traces := e.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, 15, traces[0].Samples)
	assert.Equal(t, 15, traces[0].History)
}

func TestEngine_DiscardsStaleGeneration(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "gen.csv")

	q := monitor.NewQueue(8)
	e := newTestEngine(t, nil, WithQueue(q))
	require.NoError(t, e.LoadFiles([]string{path}))
	require.NoError(t, e.LoadFiles([]string{path}))

	gen := e.Frame().Generation
	assert.Equal(t, uint64(2), gen)

	require.True(t, q.TryPush(syntheticUpdate(path, gen-1, 0, 10)))
	require.True(t, q.TryPush(syntheticUpdate(path, gen, 0, 3)))
	frame := e.Refresh()
	assert.Equal(t, 1, frame.Applied)
	assert.Zero(t, frame.Pending)
	assert.Equal(t, 3, e.Traces()[0].Samples)
}

func TestEngine_PausedRefreshIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "pause.csv", 1, 2)

	q := monitor.NewQueue(8)
	e := newTestEngine(t, nil, WithQueue(q))
	require.NoError(t, e.LoadFiles([]string{path}))

	e.SetPaused(true)
	require.True(t, q.TryPush(syntheticUpdate(path, e.Frame().Generation, 2, 10)))
	before := e.Frame()
	frame := e.Refresh()
	assert.Equal(t, before, frame)
	assert.Equal(t, 1, e.Pending())
	assert.Equal(t, 2, e.Traces()[0].Samples)

	// controls still recompute while paused
	require.NoError(t, e.SetWindowSize(0.0005))
	assert.Equal(t, 0.001, e.View().WindowSize)

	e.SetPaused(false)
	frame = e.Refresh()
	assert.Equal(t, 1, frame.Applied)
	assert.Equal(t, 10, e.Traces()[0].Samples)
}

func TestEngine_DrainBudget(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "budget.csv")

	var mu sync.Mutex
	now := time.Unix(0, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(60 * time.Millisecond)
		return now
	}

	q := monitor.NewQueue(8)
	e := newTestEngine(t, func(c *Config) { c.DrainBudgetMS = 100 }, WithQueue(q), WithClock(clock))
	require.NoError(t, e.LoadFiles([]string{path}))

	gen := e.Frame().Generation
	for i := int64(0); i < 3; i++ {
		require.True(t, q.TryPush(syntheticUpdate(path, gen, i*10, i*10+10)))
	}

	frame := e.Refresh()
	assert.Equal(t, 1, frame.Applied)
	assert.Equal(t, 2, frame.Pending)

	e.Refresh()
	frame = e.Refresh()
	assert.Equal(t, 1, frame.Applied)
	assert.Zero(t, frame.Pending)
	assert.Equal(t, 30, e.Traces()[0].Samples)
}

func TestEngine_SetterValidation(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "v.csv", 1, 2, 3, 4, 5)

	e := newTestEngine(t, nil)
	require.NoError(t, e.LoadFiles([]string{path}))
	before := e.View()

	assert.Error(t, e.SetWindowSize(0))
	assert.Error(t, e.SetWindowSize(-1))
	assert.Error(t, e.SetWindowSize(math.NaN()))
	assert.Error(t, e.SetTimeStep(0))
	assert.Error(t, e.SetTimeStep(math.Inf(1)))
	assert.Error(t, e.SetTrigger(math.NaN()))
	assert.Error(t, e.SetPosition(math.Inf(-1)))
	assert.Equal(t, before, e.View())

	e.SetFollow(false)
	require.NoError(t, e.SetWindowSize(0.002))
	require.NoError(t, e.SetPosition(2))
	view := e.View()
	assert.InDelta(t, view.MaxTime-view.WindowSize, view.XPosition, 1e-12)

	require.NoError(t, e.SetPosition(-3))
	assert.Zero(t, e.View().XPosition)

	require.NoError(t, e.SetTrigger(-2))
	assert.Equal(t, -2.0, e.View().TriggerLevel)
}

func TestEngine_SetTimeStepRescales(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "step.csv", 1, 2, 3, 4, 5)

	e := newTestEngine(t, nil)
	require.NoError(t, e.LoadFiles([]string{path}))
	assert.InDelta(t, 0.004, e.View().MaxTime, 1e-12)

	require.NoError(t, e.SetTimeStep(2))
	view := e.View()
	assert.Equal(t, 0.002, view.TimeStep)
	assert.InDelta(t, 0.008, view.MaxTime, 1e-12)

	history, ok := e.HistoryPlot(path)
	require.True(t, ok)
	require.Len(t, history.X, 5)
	assert.InDelta(t, 0.008, history.X[4], 1e-12)
}

func TestEngine_LoadFilesErrors(t *testing.T) {
	dir := t.TempDir()
	good := valuesCSV(t, dir, "good.csv", 1, 2)
	empty := filepath.Join(dir, "empty.csv")
	writeCSV(t, empty, "")
	missing := filepath.Join(dir, "missing.csv")

	e := newTestEngine(t, nil)
	err := e.LoadFiles([]string{good, empty, missing, good})
	require.Error(t, err)

	var readErr *monitor.FileReadError
	assert.True(t, errors.As(err, &readErr))
	var emptyErr *monitor.EmptyFileError
	assert.False(t, errors.As(err, &emptyErr))

	traces := e.Traces()
	require.Len(t, traces, 3)
	assert.Equal(t, "good.csv", traces[0].Label)
	assert.Equal(t, 2, traces[0].Samples)
	assert.Zero(t, traces[1].Samples)
	assert.Zero(t, traces[2].Samples)
}

func TestEngine_RendererCalled(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "r.csv", 1, 2)

	var calls atomic.Int32
	renderer := RendererFunc(func(frame model.Frame) error {
		calls.Add(1)
		return errors.New("terminal gone")
	})
	e := newTestEngine(t, nil, WithRenderer(renderer))

	require.NoError(t, e.LoadFiles([]string{path}))
	e.Refresh()
	require.NoError(t, e.SetTrigger(1))
	assert.Equal(t, int32(3), calls.Load())
}

func TestEngine_RealtimeTwoFiles(t *testing.T) {
	dir := t.TempDir()
	stamped := filepath.Join(dir, "stamped.csv")
	writeCSV(t, stamped, "timestamp,value\n"+
		"2024-01-01T00:00:00Z,1\n"+
		"2024-01-01T00:00:00.5Z,2\n"+
		"2024-01-01T00:00:01Z,3\n")
	plain := filepath.Join(dir, "plain.csv")
	writeCSV(t, plain, "value\n1\n2\n3\n")

	e := newTestEngine(t, func(c *Config) {
		c.Realtime = true
		c.PollIntervalMS = 5
		c.ErrorBackoffMS = 10
	})
	require.NoError(t, e.LoadFiles([]string{stamped, plain}))
	assert.Equal(t, 2, e.Monitors())
	assert.InDelta(t, 1.0, e.View().MaxTime, 1e-9)

	appendCSV(t, stamped, "2024-01-01T00:00:02Z,4\n")
	appendCSV(t, plain, "4\n")

	require.Eventually(t, func() bool {
		e.Refresh()
		traces := e.Traces()
		return traces[0].Samples == 4 && traces[1].Samples == 4
	}, 5*time.Second, 10*time.Millisecond)

	view := e.View()
	assert.InDelta(t, 2.0, view.MaxTime, 1e-9)
	assert.Equal(t, 4.0, view.MaxValue)
	assert.InDelta(t, 4.4, e.Frame().YMax, 1e-9)

	e.SetMonitoring(false)
	assert.Eventually(t, func() bool { return e.Monitors() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_RealtimeConstantSignal(t *testing.T) {
	dir := t.TempDir()
	path := valuesCSV(t, dir, "flat.csv", 2, 2, 2)

	e := newTestEngine(t, func(c *Config) {
		c.Realtime = true
		c.PollIntervalMS = 5
		c.ErrorBackoffMS = 10
	})
	require.NoError(t, e.LoadFiles([]string{path}))
	require.Equal(t, 3, e.Traces()[0].Samples)

	// one row per poll, all with the same value
	for want := 4; want <= 8; want++ {
		appendCSV(t, path, "2\n")
		require.Eventually(t, func() bool {
			e.Refresh()
			return e.Traces()[0].Samples == want
		}, 5*time.Second, 5*time.Millisecond, "sample %d", want)
	}

	history, ok := e.HistoryPlot(path)
	require.True(t, ok)
	assert.Equal(t, 8, history.Total)
	assert.InDelta(t, 0.007, e.View().MaxTime, 1e-9)
	assert.Equal(t, 2.0, e.View().MaxValue)
}
