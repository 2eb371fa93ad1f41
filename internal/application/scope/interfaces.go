package scope

import (
	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/presentation/interaction"
)

// Renderer draws a frame. Failures are logged by the engine and the next
// refresh simply draws again.
type Renderer interface {
	Render(frame model.Frame) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(frame model.Frame) error

func (f RendererFunc) Render(frame model.Frame) error {
	return f(frame)
}

// DisplayController handles terminal display operations
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// RenderWithState draws a frame together with the shell's interaction state
	RenderWithState(frame model.Frame, state model.InteractionState) error
}

// InputHandler processes keyboard and other input events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}

// TraceInfo summarizes one loaded trace
type TraceInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Samples     int    `json:"samples"`
	History     int    `json:"history"`
	Fingerprint string `json:"fingerprint"`
	Offset      int64  `json:"offset"`
}
