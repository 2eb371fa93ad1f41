package constants

import "time"

const (
	// File monitor cadence
	PollInterval = 200 * time.Millisecond
	ErrorBackoff = 1 * time.Second

	// Refresh cycle cadence and the wall-clock budget for draining queued updates
	RefreshInterval = 200 * time.Millisecond
	DrainBudget     = 100 * time.Millisecond

	// Debounce for filesystem write notifications before waking a monitor
	WatchDebounce = 20 * time.Millisecond
)
