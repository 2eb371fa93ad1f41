package store

import (
	"path/filepath"
	"sort"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// Trace is one monitored file's data series
type Trace struct {
	ID          string
	Label       string
	Fingerprint string
	Offset      int64

	samples  []model.Sample
	seen     map[model.Key]struct{}
	history  *HistoryBuffer
	maxValue float64
}

// NewTrace creates an empty trace for a file path
func NewTrace(id string, historyCapacity int) *Trace {
	return &Trace{
		ID:      id,
		Label:   filepath.Base(id),
		seen:    make(map[model.Key]struct{}),
		history: NewHistoryBuffer(historyCapacity),
	}
}

// Merge appends the samples not already present, restores time ordering and
// records the new ones in history. It returns the samples that were added.
func (t *Trace) Merge(samples []model.Sample) []model.Sample {
	var added []model.Sample
	for _, s := range samples {
		key := s.Key()
		if _, ok := t.seen[key]; ok {
			continue
		}
		t.seen[key] = struct{}{}
		if (len(t.samples) == 0 && len(added) == 0) || s.Value > t.maxValue {
			t.maxValue = s.Value
		}
		added = append(added, s)
	}
	if len(added) == 0 {
		return nil
	}

	needSort := len(t.samples) > 0 && added[0].Time < t.samples[len(t.samples)-1].Time
	t.samples = append(t.samples, added...)
	if needSort || !sort.SliceIsSorted(added, func(i, j int) bool { return added[i].Time < added[j].Time }) {
		sort.SliceStable(t.samples, func(i, j int) bool {
			return t.samples[i].Time < t.samples[j].Time
		})
	}
	t.history.Append(added...)
	return added
}

// Apply merges a pending update and records its fingerprint and offset
func (t *Trace) Apply(update model.PendingUpdate) int {
	added := t.Merge(update.Samples)
	t.Fingerprint = update.Fingerprint
	if update.Offset > t.Offset {
		t.Offset = update.Offset
	}
	return len(added)
}

// Rescale recomputes synthetic sample times for a new time step
func (t *Trace) Rescale(step float64) {
	synthetic := false
	for i := range t.samples {
		if t.samples[i].Synthetic {
			t.samples[i].Time = float64(t.samples[i].Index) * step
			synthetic = true
		}
	}
	t.history.Rescale(step)
	if !synthetic {
		return
	}

	t.seen = make(map[model.Key]struct{}, len(t.samples))
	for _, s := range t.samples {
		t.seen[s.Key()] = struct{}{}
	}
	sort.SliceStable(t.samples, func(i, j int) bool {
		return t.samples[i].Time < t.samples[j].Time
	})
}

// Samples returns the current-window samples in time order.
// The slice is shared with the trace and must not be modified.
func (t *Trace) Samples() []model.Sample {
	return t.samples
}

// Len returns the number of current-window samples
func (t *Trace) Len() int {
	return len(t.samples)
}

// History returns the trace's history buffer
func (t *Trace) History() *HistoryBuffer {
	return t.history
}

// Empty reports whether the trace holds no data at all
func (t *Trace) Empty() bool {
	return len(t.samples) == 0 && t.history.Len() == 0
}

// MaxTime returns the time of the newest sample. History only ever holds
// samples that were merged here, so it never exceeds this.
func (t *Trace) MaxTime() (float64, bool) {
	if len(t.samples) == 0 {
		return 0, false
	}
	return t.samples[len(t.samples)-1].Time, true
}

// MaxValue returns the largest value merged into the trace
func (t *Trace) MaxValue() (float64, bool) {
	return t.maxValue, len(t.samples) > 0
}

// At returns the i-th current-window sample in time order
func (t *Trace) At(i int) model.Sample {
	return t.samples[i]
}
