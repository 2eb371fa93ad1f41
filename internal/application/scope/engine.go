package scope

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/core/monitor"
	"github.com/penwyp/go-scope-monitor/internal/core/store"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// Option configures an Engine
type Option func(*Engine)

// WithConfig sets the engine configuration
func WithConfig(cfg *Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithRenderer sets the renderer invoked after every refresh and control change
func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithClock replaces time.Now, used for the drain budget and frame times
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithQueue replaces the update queue
func WithQueue(q *monitor.Queue) Option {
	return func(e *Engine) { e.queue = q }
}

// Engine owns the data store and the view state. Every mutation happens
// under one mutex; file monitors reach it only through the update queue.
type Engine struct {
	cfg      *Config
	renderer Renderer
	now      func() time.Time
	queue    *monitor.Queue
	pool     *monitor.Pool

	ctx    context.Context
	cancel context.CancelFunc

	// serializes operations that start or stop monitors
	lifecycle sync.Mutex

	mu         sync.Mutex
	store      *store.Store
	view       model.ViewState
	frame      model.Frame
	generation uint64
	states     []*monitor.TailState
}

// NewEngine creates an engine with no files loaded
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg == nil {
		e.cfg = DefaultConfig()
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if e.queue == nil {
		e.queue = monitor.NewQueue(e.cfg.QueueCapacity)
	}
	e.pool = monitor.NewPool(e.queue)
	e.store = store.NewStore(e.cfg.HistoryCapacity)
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.view = model.ViewState{
		WindowSize:   e.cfg.Window,
		TriggerLevel: e.cfg.Trigger,
		TimeStep:     e.cfg.TimeStep(),
		MaxTime:      constants.DefaultMaxTime,
		Follow:       e.cfg.Follow,
		Monitoring:   e.cfg.Realtime,
	}
	e.recomputeLocked()
	return e, nil
}

// LoadFiles replaces the active file set. Running monitors are stopped before
// any trace is replaced; each file is read once up to its current end, and
// monitors continue from there when monitoring is enabled. Unreadable files
// still get an (empty) trace; their errors are joined into the result.
func (e *Engine) LoadFiles(paths []string) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.pool.Stop()
	paths = uniquePaths(paths)

	e.mu.Lock()
	e.generation++
	e.store.Reset(paths)
	e.view.XPosition = 0

	var errs []error
	states := make([]*monitor.TailState, 0, len(paths))
	for _, path := range paths {
		state := monitor.NewTailState(path)
		states = append(states, state)

		batch, changed, err := state.Next(e.view.TimeStep)
		if err != nil {
			var emptyErr *monitor.EmptyFileError
			if errors.As(err, &emptyErr) {
				util.LogInfo("Loaded empty file, waiting for data", util.F("path", path))
				continue
			}
			util.LogWarn("Failed to load file", util.F("path", path), util.F("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if !changed {
			continue
		}

		trace, _ := e.store.Get(path)
		trace.Apply(model.PendingUpdate{
			TraceID:     path,
			Generation:  e.generation,
			Samples:     batch.Samples,
			Fingerprint: batch.Fingerprint,
			Offset:      batch.Offset,
		})
		util.LogInfo("Loaded file", util.F("path", path), util.F("samples", len(batch.Samples)),
			util.F("timestamped", state.Timestamped()))
	}
	e.states = states
	e.recomputeLocked()
	frame := e.frame
	monitoring := e.view.Monitoring
	opts := e.monitorOptionsLocked()
	e.mu.Unlock()

	e.render(frame)
	if monitoring {
		e.pool.Start(e.ctx, states, opts)
	}
	return errors.Join(errs...)
}

// SetMonitoring starts or stops real-time reading of the active files.
// Stopped monitors exit at their next poll boundary.
func (e *Engine) SetMonitoring(enabled bool) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.mu.Lock()
	changed := e.view.Monitoring != enabled
	e.view.Monitoring = enabled
	states := e.states
	opts := e.monitorOptionsLocked()
	e.mu.Unlock()

	if !changed {
		return
	}
	if enabled {
		e.pool.Start(e.ctx, states, opts)
		return
	}
	e.pool.Stop()
	util.LogInfo("Real-time reading stopped")
}

// SetPaused freezes or resumes the refresh cycle
func (e *Engine) SetPaused(paused bool) {
	e.control(func(v *model.ViewState) error {
		v.Paused = paused
		return nil
	})
}

// SetFollow enables or disables pinning the window to the newest data
func (e *Engine) SetFollow(follow bool) {
	e.control(func(v *model.ViewState) error {
		v.Follow = follow
		return nil
	})
}

// SetWindowSize sets the visible time span, clamped to [minimum, max_time]
func (e *Engine) SetWindowSize(size float64) error {
	if !finite(size) || size <= 0 {
		return fmt.Errorf("window size must be a positive number, got %v", size)
	}
	return e.control(func(v *model.ViewState) error {
		v.WindowSize = math.Min(math.Max(size, constants.MinWindowSize), v.MaxTime)
		return nil
	})
}

// SetPosition places the window's left edge at fraction × (max_time − window_size)
func (e *Engine) SetPosition(fraction float64) error {
	if !finite(fraction) {
		return fmt.Errorf("position must be a finite fraction, got %v", fraction)
	}
	fraction = math.Max(0, math.Min(fraction, 1))
	return e.control(func(v *model.ViewState) error {
		v.XPosition = fraction * math.Max(0, v.MaxTime-v.WindowSize)
		return nil
	})
}

// SetTimeStep sets the synthetic sampling interval in milliseconds and
// recomputes the time of every sample without a real timestamp
func (e *Engine) SetTimeStep(ms float64) error {
	if !finite(ms) || ms <= 0 {
		return fmt.Errorf("time step must be a positive number of milliseconds, got %v", ms)
	}
	return e.control(func(v *model.ViewState) error {
		v.TimeStep = ms / 1000
		e.store.Rescale(v.TimeStep)
		return nil
	})
}

// SetTrigger sets the trigger level; 0 disables trigger alignment
func (e *Engine) SetTrigger(level float64) error {
	if !finite(level) {
		return fmt.Errorf("trigger level must be finite, got %v", level)
	}
	return e.control(func(v *model.ViewState) error {
		v.TriggerLevel = level
		return nil
	})
}

// control applies a view change and recomputes the window and plots without
// draining the queue. It works while paused so a frozen view can be inspected.
func (e *Engine) control(apply func(v *model.ViewState) error) error {
	e.mu.Lock()
	if err := apply(&e.view); err != nil {
		e.mu.Unlock()
		return err
	}
	e.recomputeLocked()
	frame := e.frame
	e.mu.Unlock()

	e.render(frame)
	return nil
}

// Refresh runs one refresh cycle: drain queued updates within the drain
// budget, merge them, recompute the view and redraw. It does nothing while
// paused and returns the last frame.
func (e *Engine) Refresh() model.Frame {
	e.mu.Lock()
	if e.view.Paused {
		frame := e.frame
		e.mu.Unlock()
		return frame
	}

	applied := e.drainLocked()
	e.recomputeLocked()
	e.frame.Applied = applied
	frame := e.frame
	e.mu.Unlock()

	e.render(frame)
	return frame
}

func (e *Engine) drainLocked() int {
	deadline := e.now().Add(e.cfg.DrainBudget())
	applied := 0
	for e.now().Before(deadline) {
		update, ok := e.queue.TryPop()
		if !ok {
			break
		}
		if update.Generation != e.generation {
			util.LogDebug("Discarding update from a replaced file set",
				util.F("path", update.TraceID), util.F("generation", update.Generation))
			continue
		}
		for i := range update.Samples {
			if update.Samples[i].Synthetic {
				update.Samples[i].Time = float64(update.Samples[i].Index) * e.view.TimeStep
			}
		}
		if _, ok := e.store.Apply(update); ok {
			applied++
		}
	}
	return applied
}

// recomputeLocked derives max_time, max_value, the window and the plot data
func (e *Engine) recomputeLocked() {
	e.view.MaxTime = e.store.MaxTime()
	e.view.MaxValue = e.store.MaxValue()
	clampWindow(&e.view)

	start, end := liveRange(e.view)
	traces := e.store.Traces()
	frame := model.Frame{
		View:       e.view,
		LiveStart:  start,
		LiveEnd:    end,
		YMax:       yMax(e.view.MaxValue),
		Live:       make([]model.PlotData, 0, len(traces)),
		History:    make([]model.PlotData, 0, len(traces)),
		Pending:    e.queue.Len(),
		Generation: e.generation,
		At:         e.now(),
	}
	for _, trace := range traces {
		frame.Live = append(frame.Live, buildPlot(trace.ID, trace.Label, trace, plotOptions{
			limit:    e.cfg.MaxPoints,
			trigger:  e.view.TriggerLevel,
			windowed: true,
			lo:       start,
			hi:       end,
		}))
		frame.History = append(frame.History, buildPlot(trace.ID, trace.Label, trace.History(), plotOptions{
			limit:    e.cfg.MaxPoints,
			windowed: true,
			lo:       0,
			hi:       e.view.MaxTime,
		}))
	}
	e.frame = frame
}

func (e *Engine) render(frame model.Frame) {
	if e.renderer == nil {
		return
	}
	if err := e.renderer.Render(frame); err != nil {
		util.LogError("Redraw failed", util.F("error", err.Error()))
	}
}

func (e *Engine) monitorOptionsLocked() monitor.Options {
	return monitor.Options{
		Generation:   e.generation,
		PollInterval: e.cfg.PollInterval(),
		ErrorBackoff: e.cfg.ErrorBackoff(),
		TimeStep:     e.view.TimeStep,
	}
}

// View returns a copy of the view state
func (e *Engine) View() model.ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Frame returns the most recent frame
func (e *Engine) Frame() model.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Traces summarizes the loaded traces in load order
func (e *Engine) Traces() []TraceInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	traces := e.store.Traces()
	out := make([]TraceInfo, 0, len(traces))
	for _, t := range traces {
		out = append(out, TraceInfo{
			ID:          t.ID,
			Label:       t.Label,
			Samples:     t.Len(),
			History:     t.History().Len(),
			Fingerprint: t.Fingerprint,
			Offset:      t.Offset,
		})
	}
	return out
}

// LivePlot returns the live-view plot data of a trace from the last frame
func (e *Engine) LivePlot(id string) (model.PlotData, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return findPlot(e.frame.Live, id)
}

// HistoryPlot returns the history-view plot data of a trace from the last frame
func (e *Engine) HistoryPlot(id string) (model.PlotData, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return findPlot(e.frame.History, id)
}

// Pending returns the number of queued updates
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Monitors returns the number of running file monitors
func (e *Engine) Monitors() int {
	return e.pool.Running()
}

// Close stops every monitor
func (e *Engine) Close() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.pool.Stop()
	e.cancel()
}

func findPlot(plots []model.PlotData, id string) (model.PlotData, bool) {
	for _, p := range plots {
		if p.TraceID == id {
			return p, true
		}
	}
	return model.PlotData{}, false
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
