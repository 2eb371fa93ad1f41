package store

import (
	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// Store holds the traces of the active file set in load order.
// It is not synchronized; the refresh engine owns it behind its lock.
type Store struct {
	historyCapacity int
	order           []string
	traces          map[string]*Trace
}

// NewStore creates an empty store
func NewStore(historyCapacity int) *Store {
	if historyCapacity <= 0 {
		historyCapacity = constants.HistoryCapacity
	}
	return &Store{
		historyCapacity: historyCapacity,
		traces:          make(map[string]*Trace),
	}
}

// Reset replaces every trace with fresh, empty traces for ids
func (s *Store) Reset(ids []string) {
	s.order = s.order[:0]
	s.traces = make(map[string]*Trace, len(ids))
	for _, id := range ids {
		if _, ok := s.traces[id]; ok {
			continue
		}
		s.traces[id] = NewTrace(id, s.historyCapacity)
		s.order = append(s.order, id)
	}
}

// Get returns the trace for id
func (s *Store) Get(id string) (*Trace, bool) {
	t, ok := s.traces[id]
	return t, ok
}

// Traces returns the traces in load order
func (s *Store) Traces() []*Trace {
	out := make([]*Trace, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.traces[id])
	}
	return out
}

// Len returns the number of traces
func (s *Store) Len() int {
	return len(s.order)
}

// Apply merges an update into its trace. Updates for unknown traces are dropped.
func (s *Store) Apply(update model.PendingUpdate) (int, bool) {
	t, ok := s.traces[update.TraceID]
	if !ok {
		return 0, false
	}
	return t.Apply(update), true
}

// Rescale recomputes synthetic times of every trace
func (s *Store) Rescale(step float64) {
	for _, t := range s.traces {
		t.Rescale(step)
	}
}

// MaxTime is the largest relative time across traces and histories.
// It is DefaultMaxTime when there is no positive time.
func (s *Store) MaxTime() float64 {
	m := s.maxOf((*Trace).MaxTime)
	if m <= 0 {
		return constants.DefaultMaxTime
	}
	return m
}

// MaxValue is the largest value across traces and histories. Traces without
// data contribute 0, so the result is never negative.
func (s *Store) MaxValue() float64 {
	return s.maxOf((*Trace).MaxValue)
}

func (s *Store) maxOf(field func(*Trace) (float64, bool)) float64 {
	best := 0.0
	for _, t := range s.traces {
		if m, ok := field(t); ok && m > best {
			best = m
		}
	}
	return best
}
