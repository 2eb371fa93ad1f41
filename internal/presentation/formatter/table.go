package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

type TableFormatter struct {
	w       io.Writer
	headers []string
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		w: w,
		headers: []string{
			"Trace", "Points", "Total", "Stride", "Start", "End", "Min", "Max", "Mean", "Trigger",
		},
	}
}

func (f *TableFormatter) Format(snap Snapshot) error {
	summaries := Summarize(snap.Plots)

	rows := make([][]string, 0, len(summaries)+1)
	totalPoints, totalSamples := 0, 0
	for _, s := range summaries {
		trigger := "-"
		if s.Triggered {
			trigger = util.FormatSeconds(s.Shift)
		}
		rows = append(rows, []string{
			s.Label,
			formatNumber(s.Points),
			formatNumber(s.Total),
			fmt.Sprintf("%d", s.Stride),
			util.FormatSeconds(s.Start),
			util.FormatSeconds(s.End),
			formatValue(s.Min),
			formatValue(s.Max),
			formatValue(s.Mean),
			trigger,
		})
		totalPoints += s.Points
		totalSamples += s.Total
	}
	total := []string{"Total", formatNumber(totalPoints), formatNumber(totalSamples), "", "", "", "", "", "", ""}

	widths := f.calculateColumnWidths(append(rows, total))

	var b strings.Builder
	start, end := snap.Range()
	fmt.Fprintf(&b, "%s view  [%s, %s]  max %s  y %s\n", snap.Tab,
		util.FormatSeconds(start), util.FormatSeconds(end),
		util.FormatSeconds(snap.Frame.View.MaxTime), formatValue(snap.Frame.YMax))

	f.printBorder(&b, widths, "top")
	f.printRow(&b, f.headers, widths)
	f.printBorder(&b, widths, "middle")
	for _, row := range rows {
		f.printRow(&b, row, widths)
	}
	f.printBorder(&b, widths, "middle")
	f.printRow(&b, total, widths)
	f.printBorder(&b, widths, "bottom")

	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	for _, row := range rows {
		for i, v := range row {
			if w := util.GetDisplayWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (f *TableFormatter) printBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right + "\n")
}

func (f *TableFormatter) printRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		pad := strings.Repeat(" ", max(widths[i]-util.GetDisplayWidth(value), 0))
		if i == 0 {
			// labels left-aligned, numbers right-aligned
			b.WriteString(" " + value + pad + " │")
			continue
		}
		b.WriteString(" " + pad + value + " │")
	}
	b.WriteString("\n")
}

func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 && n > -1000 {
		return str
	}

	var result []string
	for i := len(str); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		result = append([]string{str[start:i]}, result...)
	}
	return strings.Join(result, ",")
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
