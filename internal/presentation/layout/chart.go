package layout

import (
	"math"
	"strings"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

// traceGlyphs mark the points of successive traces
var traceGlyphs = []rune{'*', '+', 'o', 'x', '#', '@'}

// Canvas is a character grid mapping [x0, x1] × [y0, y1] onto width × height cells
type Canvas struct {
	width, height int
	x0, x1        float64
	y0, y1        float64
	cells         [][]rune
	owner         [][]int
}

// NewCanvas creates an empty canvas
func NewCanvas(width, height int, x0, x1, y0, y1 float64) *Canvas {
	width = max(width, 1)
	height = max(height, 1)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	c := &Canvas{width: width, height: height, x0: x0, x1: x1, y0: y0, y1: y1}
	c.cells = make([][]rune, height)
	c.owner = make([][]int, height)
	for row := range c.cells {
		c.cells[row] = []rune(strings.Repeat(" ", width))
		c.owner[row] = make([]int, width)
		for col := range c.owner[row] {
			c.owner[row][col] = -1
		}
	}
	return c
}

// Plot draws a series with the glyph of trace index i. Points outside the
// canvas range are ignored.
func (c *Canvas) Plot(i int, xs, ys []float64) {
	glyph := traceGlyphs[i%len(traceGlyphs)]
	for k := range xs {
		if k >= len(ys) {
			break
		}
		col, row, ok := c.cell(xs[k], ys[k])
		if !ok {
			continue
		}
		c.cells[row][col] = glyph
		c.owner[row][col] = i
	}
}

func (c *Canvas) cell(x, y float64) (int, int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || x < c.x0 || x > c.x1 {
		return 0, 0, false
	}
	y = math.Max(c.y0, math.Min(y, c.y1))

	col := int(math.Round((x - c.x0) / (c.x1 - c.x0) * float64(c.width-1)))
	row := c.height - 1 - int(math.Round((y-c.y0)/(c.y1-c.y0)*float64(c.height-1)))
	return col, row, true
}

// Rows renders the grid, coloring each glyph with its trace color when color is set
func (c *Canvas) Rows(color bool) []string {
	out := make([]string, c.height)
	for row := range c.cells {
		if !color {
			out[row] = string(c.cells[row])
			continue
		}
		var b strings.Builder
		for col, r := range c.cells[row] {
			if owner := c.owner[row][col]; owner >= 0 {
				b.WriteString(util.Colorize(util.TraceColor(owner), string(r)))
				continue
			}
			b.WriteRune(r)
		}
		out[row] = b.String()
	}
	return out
}

// Glyph returns the point marker of trace i
func Glyph(i int) rune {
	return traceGlyphs[i%len(traceGlyphs)]
}
