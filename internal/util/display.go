package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal colors
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
)

// Terminal control sequences
const (
	ClearScreen         = "\033[2J"     // Clear entire screen
	ClearLine           = "\033[2K"     // Clear entire line
	ClearLineFromCursor = "\033[0K"     // Clear from cursor to end of line
	ClearToScreenEnd    = "\033[0J"     // Clear from cursor to end of screen
	ClearScrollback     = "\033[3J"     // Clear scrollback buffer
	EnterAltScreen      = "\033[?1049h" // Switch to the alternate buffer
	ExitAltScreen       = "\033[?1049l" // Back to the normal buffer
	MoveCursorHome      = "\033[H"      // Move cursor to home position
	HideCursor          = "\033[?25l"   // Hide cursor
	ShowCursor          = "\033[?25h"   // Show cursor
)

// TraceColors cycles through per-trace colors, in load order.
var TraceColors = []string{ColorBlue, ColorRed, ColorGreen, ColorCyan, ColorMagenta, ColorYellow}

// TraceColor returns the color for the i-th trace
func TraceColor(i int) string {
	return TraceColors[i%len(TraceColors)]
}

// GetDisplayWidth calculates the display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate cuts text to at most width display cells, appending an ellipsis when cut
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// Colorize wraps text in a color and a reset
func Colorize(color, text string) string {
	return color + text + ColorReset
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatSectionSeparator creates a separator line of the given width
func FormatSectionSeparator(width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s%s%s", ColorDim, strings.Repeat("─", width), ColorReset)
}

// MoveCursor returns ANSI sequence to move cursor to specific position
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}

// CenterText centers text within the given display width
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return Truncate(text, width)
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-w)
}

// FormatSeconds renders a time-axis value compactly (s, ms or µs)
func FormatSeconds(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs == 0:
		return "0s"
	case abs >= 1:
		return fmt.Sprintf("%.3gs", v)
	case abs >= 1e-3:
		return fmt.Sprintf("%.3gms", v*1e3)
	default:
		return fmt.Sprintf("%.3gµs", v*1e6)
	}
}
