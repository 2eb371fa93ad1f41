package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"

	"github.com/penwyp/go-scope-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// SnapshotOptions controls SVG snapshot export
type SnapshotOptions struct {
	Path   string // output path; ".svg" is appended when it has no extension
	Title  string
	Width  int
	Height int
}

var (
	colorBackdrop = color.RGBA{R: 16, G: 20, B: 24, A: 255}
	colorGrid     = color.RGBA{R: 48, G: 56, B: 64, A: 255}
	colorAxis     = color.RGBA{R: 140, G: 150, B: 160, A: 255}
	colorText     = color.RGBA{R: 220, G: 224, B: 228, A: 255}
	colorSubtle   = color.RGBA{R: 150, G: 158, B: 166, A: 255}
	colorTrigger  = color.RGBA{R: 230, G: 90, B: 80, A: 255}

	tracePalette = []color.RGBA{
		{R: 240, G: 200, B: 60, A: 255},
		{R: 80, G: 200, B: 220, A: 255},
		{R: 220, G: 100, B: 220, A: 255},
		{R: 110, G: 210, B: 110, A: 255},
		{R: 90, G: 140, B: 240, A: 255},
		{R: 240, G: 140, B: 70, A: 255},
	}
)

const (
	marginLeft   = 72
	marginRight  = 24
	marginTop    = 56
	marginBottom = 48
	legendRow    = 18
)

// SnapshotPath returns a timestamped snapshot file name inside dir
func SnapshotPath(dir string, tab fmt.Stringer, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("scope-%s-%s.svg", tab, now.Format("20060102-150405")))
}

// SaveSVG renders the snapshot's plots as an SVG chart at opts.Path
func SaveSVG(snap formatter.Snapshot, opts SnapshotOptions) (string, error) {
	if opts.Path == "" {
		return "", fmt.Errorf("output path is required")
	}
	if filepath.Ext(opts.Path) == "" {
		opts.Path += ".svg"
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteSVG(file, snap, opts); err != nil {
		return "", err
	}
	util.LogInfo("Saved snapshot", util.F("path", opts.Path), util.F("traces", len(snap.Plots)))
	return opts.Path, nil
}

// WriteSVG renders the snapshot's plots as an SVG chart to w
func WriteSVG(w io.Writer, snap formatter.Snapshot, opts SnapshotOptions) error {
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Height <= 0 {
		opts.Height = 540
	}
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("Scope %s view", snap.Tab)
	}

	x0, x1 := snap.Range()
	if x1 <= x0 {
		x1 = x0 + 1
	}
	yTop := snap.Frame.YMax
	if yTop <= 0 {
		yTop = 1
	}
	yBottom := 0.0
	for _, p := range snap.Plots {
		for _, y := range p.Y {
			if y < yBottom {
				yBottom = y
			}
		}
	}

	plotW := opts.Width - marginLeft - marginRight
	plotH := opts.Height - marginTop - marginBottom - legendRow*len(snap.Plots)
	if plotW < 10 || plotH < 10 {
		return fmt.Errorf("snapshot size %dx%d is too small for %d traces", opts.Width, opts.Height, len(snap.Plots))
	}
	px := func(x float64) int {
		return marginLeft + int((x-x0)/(x1-x0)*float64(plotW))
	}
	py := func(y float64) int {
		return marginTop + plotH - int((y-yBottom)/(yTop-yBottom)*float64(plotH))
	}

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Text(marginLeft, 28, opts.Title, textStyle(colorText, 16, true))
	canvas.Text(marginLeft, 46, fmt.Sprintf("window %s  pos %s  max %s  step %s",
		util.FormatSeconds(snap.Frame.View.WindowSize), util.FormatSeconds(snap.Frame.View.XPosition),
		util.FormatSeconds(snap.Frame.View.MaxTime), util.FormatSeconds(snap.Frame.View.TimeStep)),
		textStyle(colorSubtle, 12, false))

	drawGrid(canvas, px, py, x0, x1, yBottom, yTop, plotW, plotH)

	if level := snap.Frame.View.TriggerLevel; level != 0 && level >= yBottom && level <= yTop {
		canvas.Line(marginLeft, py(level), marginLeft+plotW, py(level),
			fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:6,4", css(colorTrigger)))
	}

	for i, p := range snap.Plots {
		c := tracePalette[i%len(tracePalette)]
		if len(p.X) > 0 {
			xs := make([]int, 0, len(p.X))
			ys := make([]int, 0, len(p.Y))
			for j := range p.X {
				if j >= len(p.Y) {
					break
				}
				xs = append(xs, px(p.X[j]))
				ys = append(ys, py(p.Y[j]))
			}
			canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", css(c)))
		}

		ly := marginTop + plotH + marginBottom - 8 + i*legendRow
		canvas.Rect(marginLeft, ly-9, 14, 4, fmt.Sprintf("fill:%s", css(c)))
		legend := fmt.Sprintf("%s  %d/%d pts", p.Label, len(p.X), p.Total)
		if p.Stride > 1 {
			legend += fmt.Sprintf("  stride %d", p.Stride)
		}
		if p.Triggered {
			legend += "  trig@" + util.FormatSeconds(p.Shift)
		}
		canvas.Text(marginLeft+22, ly, legend, textStyle(colorSubtle, 12, false))
	}

	canvas.End()
	return nil
}

func drawGrid(canvas *svg.SVG, px, py func(float64) int, x0, x1, y0, y1 float64, plotW, plotH int) {
	const divisions = 4
	for i := 0; i <= divisions; i++ {
		x := x0 + (x1-x0)*float64(i)/divisions
		y := y0 + (y1-y0)*float64(i)/divisions
		canvas.Line(px(x), marginTop, px(x), marginTop+plotH, fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Line(marginLeft, py(y), marginLeft+plotW, py(y), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Text(px(x), marginTop+plotH+16, util.FormatSeconds(x), textStyle(colorSubtle, 11, false)+";text-anchor:middle")
		canvas.Text(marginLeft-6, py(y)+4, fmt.Sprintf("%.3g", y), textStyle(colorSubtle, 11, false)+";text-anchor:end")
	}
	axis := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	canvas.Line(marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH, axis)
	canvas.Line(marginLeft, marginTop, marginLeft, marginTop+plotH, axis)
}

func textStyle(c color.RGBA, size int, bold bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fill:%s;font-size:%dpx;font-family:monospace", css(c), size)
	if bold {
		b.WriteString(";font-weight:bold")
	}
	return b.String()
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
