package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/presentation/layout"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// DisplayConfig configures the terminal display
type DisplayConfig struct {
	Output io.Writer // defaults to stdout
	Color  bool
	Sizer  *layout.Sizer
}

// TerminalDisplay draws frames as ASCII charts on the terminal
type TerminalDisplay struct {
	config            *DisplayConfig
	mu                sync.Mutex
	inAlternateScreen bool
	isFirstRender     bool
	lastHelp          bool
	lastTab           model.ViewTab
	lastFrame         model.Frame
}

// NewTerminalDisplay creates a display writing to config.Output
func NewTerminalDisplay(config *DisplayConfig) *TerminalDisplay {
	if config == nil {
		config = &DisplayConfig{}
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Sizer == nil {
		config.Sizer = layout.SharedSizer()
	}
	return &TerminalDisplay{
		config:        config,
		isFirstRender: true,
	}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.config.Output, util.EnterAltScreen+util.ClearScreen+util.ClearScrollback+util.HideCursor+util.MoveCursorHome)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.config.Output, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

// Render draws a frame with a default interaction state
func (td *TerminalDisplay) Render(frame model.Frame) error {
	return td.RenderWithState(frame, model.InteractionState{})
}

// RenderWithState draws a frame together with the shell's interaction state.
// The screen is composed off-screen and written in one call.
func (td *TerminalDisplay) RenderWithState(frame model.Frame, state model.InteractionState) error {
	td.mu.Lock()
	defer td.mu.Unlock()
	td.lastFrame = frame

	width, height := td.config.Sizer.Size()

	var lines []string
	if state.ShowHelp {
		lines = helpLines()
	} else {
		strategy := layout.GetLayoutStrategy(state.Tab)
		lines = strategy.Render(frame, layout.LayoutParam{
			Width:  width,
			Height: height - 1,
			Color:  td.config.Color,
			State:  state,
		})
	}

	var buf bytes.Buffer
	// full clear on first draw and on switching screens, otherwise overwrite in place
	if td.isFirstRender || state.ShowHelp != td.lastHelp || state.Tab != td.lastTab {
		buf.WriteString(util.ClearScreen)
		td.isFirstRender = false
	}
	td.lastHelp = state.ShowHelp
	td.lastTab = state.Tab

	buf.WriteString(util.MoveCursorHome)
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString(util.ClearLineFromCursor)
		buf.WriteString("\r\n")
	}
	if state.StatusMessage != "" {
		status := "  Status: " + state.StatusMessage
		if td.config.Color {
			status = util.Colorize(util.ColorYellow, status)
		}
		buf.WriteString(util.Truncate(status, width))
		buf.WriteString(util.ClearLineFromCursor)
	}
	buf.WriteString(util.ClearToScreenEnd)

	_, err := td.config.Output.Write(buf.Bytes())
	return err
}

// LastFrame returns the most recently drawn frame
func (td *TerminalDisplay) LastFrame() model.Frame {
	td.mu.Lock()
	defer td.mu.Unlock()
	return td.lastFrame
}

func helpLines() []string {
	return []string{
		"Scope Monitor - Help",
		strings.Repeat("=", 60),
		"",
		"Keyboard Shortcuts:",
		"",
		"  q/Esc/Ctrl+C - Quit the program",
		"  p         - Pause/unpause the refresh cycle",
		"  f         - Toggle follow mode (pin window to newest data)",
		"  r         - Toggle real-time reading of the files",
		"  +/-       - Zoom out/in (double or halve the window)",
		"  Left/Right - Move the window by 5% (disables follow)",
		"  [/]       - Halve/double the synthetic time step",
		"  t/T       - Raise/lower the trigger level by 10% of the peak",
		"  0         - Disable the trigger",
		"  Tab       - Switch between live and history views",
		"  s         - Save an SVG snapshot",
		"  h         - Show this help",
		"",
		strings.Repeat("=", 60),
		"Press 'h' to return...",
	}
}
