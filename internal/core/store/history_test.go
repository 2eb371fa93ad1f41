package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

func samplesFrom(values ...float64) []model.Sample {
	out := make([]model.Sample, len(values))
	for i, v := range values {
		out[i] = model.Sample{Time: float64(i), Value: v, Index: int64(i), Synthetic: true}
	}
	return out
}

func TestHistoryBuffer_EvictsOldest(t *testing.T) {
	h := NewHistoryBuffer(3)
	h.Append(samplesFrom(1, 2)...)
	assert.Equal(t, 2, h.Len())

	h.Append(samplesFrom(3, 4, 5)...)
	require.Equal(t, 3, h.Len())

	var values []float64
	for _, s := range h.Samples() {
		values = append(values, s.Value)
	}
	assert.Equal(t, []float64{3, 4, 5}, values)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, 5.0, last.Value)
}

func TestHistoryBuffer_Wraparound(t *testing.T) {
	h := NewHistoryBuffer(4)
	for i := 0; i < 10; i++ {
		h.Append(model.Sample{Value: float64(i)})
	}

	var values []float64
	for _, s := range h.Samples() {
		values = append(values, s.Value)
	}
	assert.Equal(t, []float64{6, 7, 8, 9}, values)
	last, _ := h.Last()
	assert.Equal(t, 9.0, last.Value)
}

func TestHistoryBuffer_DefaultCapacityAndClear(t *testing.T) {
	h := NewHistoryBuffer(0)
	assert.Equal(t, 100000, h.Cap())

	h.Append(samplesFrom(1)...)
	h.Clear()
	assert.Zero(t, h.Len())
	_, ok := h.Last()
	assert.False(t, ok)
}

func TestHistoryBuffer_Rescale(t *testing.T) {
	h := NewHistoryBuffer(10)
	h.Append(model.Sample{Time: 0.002, Index: 2, Synthetic: true}, model.Sample{Time: 5, Index: 3})
	h.Rescale(0.01)

	got := h.Samples()
	assert.InDelta(t, 0.02, got[0].Time, 1e-12)
	assert.Equal(t, 5.0, got[1].Time, "timestamped samples keep their time")
}

func TestHistoryBuffer_NeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(t, "capacity")
		batches := rapid.SliceOf(rapid.IntRange(0, 100)).Draw(t, "batches")

		h := NewHistoryBuffer(capacity)
		next := 0
		for _, n := range batches {
			batch := make([]model.Sample, n)
			for i := range batch {
				batch[i] = model.Sample{Value: float64(next)}
				next++
			}
			h.Append(batch...)

			if h.Len() > capacity {
				t.Fatalf("history length %d exceeds capacity %d", h.Len(), capacity)
			}
		}

		// the newest samples survive, oldest first
		got := h.Samples()
		if len(got) != min(next, capacity) {
			t.Fatalf("expected %d samples, got %d", min(next, capacity), len(got))
		}
		for i, s := range got {
			want := float64(next - len(got) + i)
			if s.Value != want {
				t.Fatalf("sample %d = %v, want %v", i, s.Value, want)
			}
		}
	})
}
