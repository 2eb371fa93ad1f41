package interaction

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// SortField represents the field to sort traces by
type SortField int

const (
	SortByLoad SortField = iota
	SortByLabel
	SortByPoints
	SortByPeak
)

// ParseSortField maps a flag value to a sort field
func ParseSortField(name string) (SortField, error) {
	switch name {
	case "", "load":
		return SortByLoad, nil
	case "label":
		return SortByLabel, nil
	case "points":
		return SortByPoints, nil
	case "peak":
		return SortByPeak, nil
	}
	return SortByLoad, fmt.Errorf("unknown sort field %q (load, label, points, peak)", name)
}

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// TraceSorter orders plot data for listings
type TraceSorter struct {
	field SortField
	order SortOrder
}

// NewTraceSorter creates a sorter; load order is kept by SortByLoad
func NewTraceSorter(field SortField, order SortOrder) *TraceSorter {
	return &TraceSorter{field: field, order: order}
}

// Sort sorts the plots in place. Equal keys keep load order.
func (s *TraceSorter) Sort(plots []model.PlotData) {
	if s.field == SortByLoad {
		if s.order == SortDescending {
			for i, j := 0, len(plots)-1; i < j; i, j = i+1, j-1 {
				plots[i], plots[j] = plots[j], plots[i]
			}
		}
		return
	}

	sort.SliceStable(plots, func(i, j int) bool {
		a, b := plots[i], plots[j]
		if s.order == SortDescending {
			a, b = b, a
		}
		switch s.field {
		case SortByLabel:
			return a.Label < b.Label
		case SortByPoints:
			return a.Total < b.Total
		default:
			return peak(a) < peak(b)
		}
	})
}

func peak(p model.PlotData) float64 {
	if len(p.Y) == 0 {
		return 0
	}
	return floats.Max(p.Y)
}
