package model

import "time"

// ViewState is the single mutable view configuration owned by the refresh cycle.
type ViewState struct {
	WindowSize   float64 // visible time span (s)
	XPosition    float64 // left edge of the live window (s)
	TriggerLevel float64 // 0 disables trigger alignment
	TimeStep     float64 // synthetic sampling interval (s)
	MaxTime      float64 // global upper bound across traces (s)
	MaxValue     float64 // largest value across traces
	Follow       bool
	Paused       bool
	Monitoring   bool
}

// PlotData is the display-ready series of one trace.
type PlotData struct {
	TraceID   string    `json:"trace"`
	Label     string    `json:"label"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Total     int       `json:"total"`  // samples before decimation
	Stride    int       `json:"stride"` // decimation stride, 1 when none
	Shift     float64   `json:"shift"`  // time subtracted by trigger alignment
	Triggered bool      `json:"triggered"`
}

// Frame is the result of one refresh pass: everything a renderer needs.
type Frame struct {
	View       ViewState  `json:"view"`
	LiveStart  float64    `json:"live_start"`
	LiveEnd    float64    `json:"live_end"`
	YMax       float64    `json:"y_max"`
	Live       []PlotData `json:"live"`
	History    []PlotData `json:"history"`
	Applied    int        `json:"applied"` // updates merged by this pass
	Pending    int        `json:"pending"` // updates left queued
	Generation uint64     `json:"generation"`
	At         time.Time  `json:"at"`
}

// ViewTab selects which view the shell shows.
type ViewTab int

const (
	TabLive ViewTab = iota
	TabHistory
)

func (t ViewTab) String() string {
	if t == TabHistory {
		return "history"
	}
	return "live"
}

// InteractionState represents the shell's UI interaction state
type InteractionState struct {
	ShowHelp      bool
	Tab           ViewTab
	StatusMessage string
}
