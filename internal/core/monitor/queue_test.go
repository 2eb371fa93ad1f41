package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

func TestQueue_TryPushTryPop(t *testing.T) {
	q := NewQueue(2)
	assert.Equal(t, 2, q.Cap())

	assert.True(t, q.TryPush(model.PendingUpdate{TraceID: "a"}))
	assert.True(t, q.TryPush(model.PendingUpdate{TraceID: "b"}))
	assert.False(t, q.TryPush(model.PendingUpdate{TraceID: "c"}), "full queue rejects")
	assert.Equal(t, 2, q.Len())

	u, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "a", u.TraceID)
	u, _ = q.TryPop()
	assert.Equal(t, "b", u.TraceID)
	_, ok = q.TryPop()
	assert.False(t, ok)
}

func TestQueue_PushBlocksUntilCancelled(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Push(context.Background(), model.PendingUpdate{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Push(ctx, model.PendingUpdate{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_PerProducerFIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		producers := rapid.IntRange(1, 4).Draw(t, "producers")
		perProducer := rapid.IntRange(0, 50).Draw(t, "perProducer")

		q := NewQueue(producers * perProducer)
		done := make(chan struct{})
		for p := 0; p < producers; p++ {
			go func(id int) {
				for i := 0; i < perProducer; i++ {
					_ = q.Push(context.Background(), model.PendingUpdate{
						TraceID:    string(rune('a' + id)),
						Generation: uint64(i),
					})
				}
				done <- struct{}{}
			}(p)
		}
		for p := 0; p < producers; p++ {
			<-done
		}

		next := make(map[string]uint64)
		for {
			u, ok := q.TryPop()
			if !ok {
				break
			}
			if u.Generation != next[u.TraceID] {
				t.Fatalf("producer %s: got %d, want %d", u.TraceID, u.Generation, next[u.TraceID])
			}
			next[u.TraceID]++
		}
	})
}
