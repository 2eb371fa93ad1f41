package e2e

import (
	"regexp"
	"strings"
	"sync"
)

var ansiEscape = regexp.MustCompile(`\x1b\[\??[0-9;]*[a-zA-Z]`)

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// VirtualScreen is an io.Writer that interprets the escape sequences the
// terminal display emits, so tests can assert on what a user would see.
type VirtualScreen struct {
	mu      sync.Mutex
	rows    int
	cols    int
	buffer  [][]rune
	cursorX int
	cursorY int

	altScreen    bool
	cursorHidden bool
	pending      []rune // incomplete escape sequence from the last write
}

// NewVirtualScreen creates a blank screen
func NewVirtualScreen(rows, cols int) *VirtualScreen {
	s := &VirtualScreen{rows: rows, cols: cols}
	s.buffer = make([][]rune, rows)
	for i := range s.buffer {
		s.buffer[i] = blankLine(cols)
	}
	return s
}

func blankLine(cols int) []rune {
	line := make([]rune, cols)
	for i := range line {
		line[i] = ' '
	}
	return line
}

// Write interprets p and updates the screen
func (s *VirtualScreen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runes := append(s.pending, []rune(string(p))...)
	s.pending = nil

	for i := 0; i < len(runes); {
		switch r := runes[i]; r {
		case '\x1b':
			next, ok := s.escape(runes, i)
			if !ok {
				s.pending = append([]rune(nil), runes[i:]...)
				return len(p), nil
			}
			i = next
			continue
		case '\r':
			s.cursorX = 0
		case '\n':
			s.lineFeed()
		default:
			s.putChar(r)
		}
		i++
	}
	return len(p), nil
}

// escape handles the CSI sequence starting at runes[start]. It reports false
// when the sequence is cut off at the end of the input.
func (s *VirtualScreen) escape(runes []rune, start int) (int, bool) {
	if start+1 >= len(runes) {
		return 0, false
	}
	if runes[start+1] != '[' {
		return start + 2, true
	}

	i := start + 2
	private := false
	if i < len(runes) && runes[i] == '?' {
		private = true
		i++
	}

	var params []int
	current, hasDigits := 0, false
	for ; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
			hasDigits = true
		case r == ';':
			params = append(params, current)
			current, hasDigits = 0, false
		default:
			if hasDigits {
				params = append(params, current)
			}
			if private {
				s.privateMode(r, params)
			} else {
				s.command(r, params)
			}
			return i + 1, true
		}
	}
	return 0, false
}

func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (s *VirtualScreen) privateMode(cmd rune, params []int) {
	if len(params) == 0 {
		return
	}
	on := cmd == 'h'
	switch params[0] {
	case 1049:
		s.altScreen = on
	case 25:
		s.cursorHidden = on
	}
}

func (s *VirtualScreen) command(cmd rune, params []int) {
	mode := 0
	if len(params) > 0 {
		mode = params[0]
	}

	switch cmd {
	case 'H', 'f':
		s.cursorY = param(params, 0, 1) - 1
		s.cursorX = param(params, 1, 1) - 1
	case 'J':
		switch mode {
		case 0:
			s.clearLineFrom(s.cursorY, s.cursorX)
			for y := s.cursorY + 1; y < s.rows; y++ {
				s.buffer[y] = blankLine(s.cols)
			}
		case 2:
			for y := range s.buffer {
				s.buffer[y] = blankLine(s.cols)
			}
		}
	case 'K':
		switch mode {
		case 0:
			s.clearLineFrom(s.cursorY, s.cursorX)
		case 2:
			s.clearLineFrom(s.cursorY, 0)
		}
	}
	// SGR (m) and scrollback (3J) do not change visible text
}

func (s *VirtualScreen) clearLineFrom(y, x int) {
	if y < 0 || y >= s.rows {
		return
	}
	for ; x < s.cols; x++ {
		s.buffer[y][x] = ' '
	}
}

func (s *VirtualScreen) lineFeed() {
	s.cursorY++
	if s.cursorY >= s.rows {
		copy(s.buffer, s.buffer[1:])
		s.buffer[s.rows-1] = blankLine(s.cols)
		s.cursorY = s.rows - 1
	}
}

func (s *VirtualScreen) putChar(r rune) {
	if s.cursorX >= s.cols {
		// the display truncates lines; overflow is dropped rather than wrapped
		return
	}
	if s.cursorY >= 0 && s.cursorY < s.rows && s.cursorX >= 0 {
		s.buffer[s.cursorY][s.cursorX] = r
	}
	s.cursorX++
}

// Lines returns the screen rows with trailing spaces trimmed
func (s *VirtualScreen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, s.rows)
	for i, row := range s.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return lines
}

// Render returns the visible screen as text
func (s *VirtualScreen) Render() string {
	return strings.TrimRight(strings.Join(s.Lines(), "\n"), "\n")
}

// ContainsText reports whether any row shows text
func (s *VirtualScreen) ContainsText(text string) bool {
	for _, line := range s.Lines() {
		if strings.Contains(line, text) {
			return true
		}
	}
	return false
}

// InAltScreen reports whether the alternate buffer is active
func (s *VirtualScreen) InAltScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.altScreen
}

// CursorHidden reports whether the cursor is hidden
func (s *VirtualScreen) CursorHidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorHidden
}
