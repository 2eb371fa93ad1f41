package scope

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/presentation/display"
	"github.com/penwyp/go-scope-monitor/internal/presentation/export"
	"github.com/penwyp/go-scope-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-scope-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

const (
	// status messages fade after this long
	statusTTL = 3 * time.Second

	// arrow keys move the window by this fraction of the scrollable range
	positionStep = 0.05

	// t/T move the trigger by this fraction of the peak value
	triggerStep = 0.1
)

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithDisplay replaces the terminal display
func WithDisplay(d DisplayController) OrchestratorOption {
	return func(o *Orchestrator) { o.display = d }
}

// WithInput replaces the raw-mode keyboard reader
func WithInput(in InputHandler) OrchestratorOption {
	return func(o *Orchestrator) { o.input = in }
}

// Orchestrator runs the interactive viewer: it ticks the engine's refresh
// cycle, maps key presses onto view controls and owns the terminal.
type Orchestrator struct {
	config       *Config
	files        []string
	engine       *Engine
	stateManager *StateManager
	display      DisplayController
	input        InputHandler
	now          func() time.Time
}

// NewOrchestrator creates an orchestrator for files
func NewOrchestrator(config *Config, files []string, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &Orchestrator{
		config:       config,
		files:        files,
		stateManager: NewStateManager(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.display == nil {
		o.display = display.NewTerminalDisplay(&display.DisplayConfig{Color: true})
	}

	engine, err := NewEngine(WithConfig(config), WithRenderer(RendererFunc(o.render)))
	if err != nil {
		return nil, err
	}
	o.engine = engine
	return o, nil
}

// Engine returns the refresh engine driven by the orchestrator
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// Run starts the viewer and blocks until the user quits or ctx is done
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting scope monitor", util.F("files", len(o.files)))
	defer o.Close()

	if o.input == nil {
		keyboard, err := interaction.NewKeyboardReader()
		if err != nil {
			return fmt.Errorf("failed to initialize keyboard: %w", err)
		}
		o.input = keyboard
	}
	defer o.input.Close()

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	o.load()

	ticker := time.NewTicker(o.config.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down scope monitor")
			return nil

		case <-ticker.C:
			o.engine.Refresh()

		case event, ok := <-o.input.Events():
			if !ok {
				return nil
			}
			if o.HandleKey(event) {
				return nil
			}
		}
	}
}

func (o *Orchestrator) load() {
	if err := o.engine.LoadFiles(o.files); err != nil {
		util.LogError("Some files could not be loaded", util.F("error", err.Error()))
		o.setStatus(fmt.Sprintf("Load error: %v", err))
		return
	}
	o.setStatus(fmt.Sprintf("Loaded %d file(s)", len(o.engine.Traces())))
}

// HandleKey applies one key press and reports whether the viewer should exit
func (o *Orchestrator) HandleKey(event interaction.KeyEvent) bool {
	view := o.engine.View()

	switch event.Type {
	case interaction.KeyEscape:
		if o.stateManager.GetInteractionState().ShowHelp {
			o.updateState(func(s *model.InteractionState) { s.ShowHelp = false })
			return false
		}
		return true

	case interaction.KeyTab:
		o.updateState(func(s *model.InteractionState) {
			if s.Tab == model.TabLive {
				s.Tab = model.TabHistory
			} else {
				s.Tab = model.TabLive
			}
		})

	case interaction.KeyLeft:
		o.movePosition(view, -positionStep)

	case interaction.KeyRight:
		o.movePosition(view, positionStep)

	case interaction.KeyUp:
		o.moveTrigger(view, triggerStep)

	case interaction.KeyDown:
		o.moveTrigger(view, -triggerStep)

	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q', 3: // Ctrl+C
			return true
		case 'p', 'P':
			o.engine.SetPaused(!view.Paused)
			if view.Paused {
				o.setStatus("Resumed")
			} else {
				o.setStatus("Paused")
			}
		case 'f', 'F':
			o.engine.SetFollow(!view.Follow)
			o.setStatus(onOff("Follow", !view.Follow))
		case 'r', 'R':
			o.engine.SetMonitoring(!view.Monitoring)
			o.setStatus(onOff("Real-time reading", !view.Monitoring))
		case '+', '=':
			o.report(o.engine.SetWindowSize(view.WindowSize * 2))
		case '-', '_':
			o.report(o.engine.SetWindowSize(view.WindowSize / 2))
		case '[':
			o.report(o.engine.SetTimeStep(view.TimeStep * 1000 / 2))
		case ']':
			o.report(o.engine.SetTimeStep(view.TimeStep * 1000 * 2))
		case 't':
			o.moveTrigger(view, triggerStep)
		case 'T':
			o.moveTrigger(view, -triggerStep)
		case '0':
			o.report(o.engine.SetTrigger(0))
			o.setStatus("Trigger off")
		case 's', 'S':
			o.saveSnapshot()
		case 'h', 'H':
			o.updateState(func(s *model.InteractionState) { s.ShowHelp = !s.ShowHelp })
		}
	}
	return false
}

// movePosition shifts the window by delta of the scrollable range and leaves follow mode
func (o *Orchestrator) movePosition(view model.ViewState, delta float64) {
	fraction := 0.0
	if span := view.MaxTime - view.WindowSize; span > 0 {
		fraction = view.XPosition / span
	}
	o.engine.SetFollow(false)
	o.report(o.engine.SetPosition(math.Max(0, math.Min(fraction+delta, 1))))
}

func (o *Orchestrator) moveTrigger(view model.ViewState, delta float64) {
	step := view.MaxValue * delta
	if step == 0 {
		step = delta
	}
	level := view.TriggerLevel + step
	o.report(o.engine.SetTrigger(level))
	o.setStatus(fmt.Sprintf("Trigger %.4g", level))
}

func (o *Orchestrator) saveSnapshot() {
	tab := o.stateManager.GetInteractionState().Tab
	snap := formatter.NewSnapshot(o.engine.Frame(), tab)
	path, err := export.SaveSVG(snap, export.SnapshotOptions{
		Path: export.SnapshotPath(o.config.SnapshotDir, tab, o.now()),
	})
	if err != nil {
		util.LogError("Failed to save snapshot", util.F("error", err.Error()))
		o.setStatus(fmt.Sprintf("Snapshot failed: %v", err))
		return
	}
	o.setStatus("Saved " + path)
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}

func (o *Orchestrator) report(err error) {
	if err != nil {
		util.LogWarn("Control rejected", util.F("error", err.Error()))
		o.setStatus(err.Error())
	}
}

func (o *Orchestrator) setStatus(msg string) {
	o.stateManager.SetStatus(msg, statusTTL)
	o.redraw()
}

func (o *Orchestrator) updateState(update func(*model.InteractionState)) {
	o.stateManager.UpdateInteractionState(update)
	o.redraw()
}

// redraw draws the last frame again after a shell-only change
func (o *Orchestrator) redraw() {
	if err := o.render(o.engine.Frame()); err != nil {
		util.LogError("Redraw failed", util.F("error", err.Error()))
	}
}

func (o *Orchestrator) render(frame model.Frame) error {
	return o.display.RenderWithState(frame, o.stateManager.GetInteractionState())
}

// Close stops the engine's file monitors
func (o *Orchestrator) Close() error {
	o.engine.Close()
	return nil
}
