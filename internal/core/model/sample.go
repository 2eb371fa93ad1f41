package model

import "time"

// Row is one parsed CSV data line.
type Row struct {
	Timestamp    time.Time
	HasTimestamp bool
	Value        float64
}

// Sample is one (relative_time, value) pair of a trace.
// Index is the row's ordinal within its file; synthetic samples derive
// their time from it and the current time step.
type Sample struct {
	Time      float64
	Value     float64
	Index     int64
	Synthetic bool
}

// Key identifies a sample for de-duplication.
type Key struct {
	Time  float64
	Value float64
	Index int64
}

// Key returns the de-duplication key. Timestamped samples are keyed by
// time and value only; synthetic samples also carry their row index so that
// repeated values at distinct rows survive.
func (s Sample) Key() Key {
	if s.Synthetic {
		return Key{Time: s.Time, Value: s.Value, Index: s.Index}
	}
	return Key{Time: s.Time, Value: s.Value, Index: -1}
}

// PendingUpdate is a parsed, fingerprinted batch travelling from a file monitor
// to the refresh cycle. It is consumed exactly once.
type PendingUpdate struct {
	TraceID     string
	Generation  uint64
	Samples     []Sample
	Fingerprint string
	Offset      int64
}

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	Operation string
}
