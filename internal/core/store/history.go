package store

import (
	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// HistoryBuffer is a fixed-capacity circular buffer of samples.
// Once full, each append evicts the oldest sample.
type HistoryBuffer struct {
	data  []model.Sample
	head  int
	count int
	size  int
}

// NewHistoryBuffer creates a history buffer with the given capacity
func NewHistoryBuffer(size int) *HistoryBuffer {
	if size <= 0 {
		size = constants.HistoryCapacity
	}
	return &HistoryBuffer{size: size}
}

// Append adds samples in order, evicting the oldest when full
func (h *HistoryBuffer) Append(samples ...model.Sample) {
	if len(samples) == 0 {
		return
	}
	if h.data == nil {
		// grow lazily; most traces never reach capacity
		h.data = make([]model.Sample, 0, min(h.size, max(len(samples), 1024)))
	}
	if len(samples) > h.size {
		samples = samples[len(samples)-h.size:]
	}
	for _, s := range samples {
		h.push(s)
	}
}

func (h *HistoryBuffer) push(s model.Sample) {
	if len(h.data) < h.size {
		h.data = append(h.data, s)
		h.count++
		return
	}
	h.data[h.head] = s
	h.head = (h.head + 1) % h.size
}

// Len returns the number of stored samples
func (h *HistoryBuffer) Len() int {
	return h.count
}

// Cap returns the buffer capacity
func (h *HistoryBuffer) Cap() int {
	return h.size
}

// Samples returns a copy of the stored samples, oldest first
func (h *HistoryBuffer) Samples() []model.Sample {
	out := make([]model.Sample, 0, h.count)
	if h.count < h.size {
		return append(out, h.data...)
	}
	out = append(out, h.data[h.head:]...)
	return append(out, h.data[:h.head]...)
}

// Last returns the newest sample
func (h *HistoryBuffer) Last() (model.Sample, bool) {
	if h.count == 0 {
		return model.Sample{}, false
	}
	if h.count < h.size {
		return h.data[h.count-1], true
	}
	return h.data[(h.head-1+h.size)%h.size], true
}

// Rescale recomputes the time of synthetic samples for a new time step
func (h *HistoryBuffer) Rescale(step float64) {
	for i := range h.data {
		if h.data[i].Synthetic {
			h.data[i].Time = float64(h.data[i].Index) * step
		}
	}
}

// Clear drops every sample
func (h *HistoryBuffer) Clear() {
	h.data = nil
	h.head = 0
	h.count = 0
}

// At returns the i-th stored sample, oldest first
func (h *HistoryBuffer) At(i int) model.Sample {
	if h.count < h.size {
		return h.data[i]
	}
	return h.data[(h.head+i)%h.size]
}
