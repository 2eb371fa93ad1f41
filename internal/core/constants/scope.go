package constants

const (
	// Capacity of each trace's rolling history buffer
	HistoryCapacity = 100000

	// Displayed point cap per trace and view
	MaxDisplayPoints = 10000

	// Capacity of the monitor -> refresh update queue
	QueueCapacity = 1024

	// View defaults (seconds)
	DefaultWindowSize = 0.1
	MinWindowSize     = 0.001
	DefaultMaxTime    = 1.0

	// Synthetic sampling interval in milliseconds
	DefaultTimeStepMS = 1.0

	// Vertical headroom over the largest value
	YHeadroom = 1.1
)
