package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
	minWidth       = 40
	minHeight      = 12
)

// Package-level singleton Sizer instance
var sharedSizer = &Sizer{}

// Sizer measures the terminal and pads text by display width
type Sizer struct {
	// Fixed overrides the terminal size when both values are positive
	FixedWidth  int
	FixedHeight int
}

// SharedSizer returns the package-level sizer
func SharedSizer() *Sizer {
	return sharedSizer
}

// displayWidth calculates the actual display width of a string containing wide runes
func (i Sizer) displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadString pads a string to a specific display width
func (i Sizer) PadString(s string, width int, leftAlign bool) string {
	actualWidth := i.displayWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// Size returns the usable terminal width and height
func (i Sizer) Size() (int, int) {
	if i.FixedWidth > 0 && i.FixedHeight > 0 {
		return i.FixedWidth, i.FixedHeight
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth || height < minHeight {
		util.LogDebugf("Terminal size unavailable (%dx%d, err=%v), using fallback", width, height, err)
		return fallbackWidth, fallbackHeight
	}
	return width, height
}
