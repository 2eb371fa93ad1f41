package monitor

import (
	"context"

	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// Queue is the bounded conduit from file monitors to the refresh cycle.
// Updates pushed by one monitor are popped in push order.
type Queue struct {
	ch chan model.PendingUpdate
}

// NewQueue creates a queue holding at most capacity updates
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = constants.QueueCapacity
	}
	return &Queue{ch: make(chan model.PendingUpdate, capacity)}
}

// Push enqueues an update, blocking the caller while the queue is full
func (q *Queue) Push(ctx context.Context, update model.PendingUpdate) error {
	select {
	case q.ch <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush enqueues an update without blocking
func (q *Queue) TryPush(update model.PendingUpdate) bool {
	select {
	case q.ch <- update:
		return true
	default:
		return false
	}
}

// TryPop dequeues an update without blocking
func (q *Queue) TryPop() (model.PendingUpdate, bool) {
	select {
	case update := <-q.ch:
		return update, true
	default:
		return model.PendingUpdate{}, false
	}
}

// Len returns the number of queued updates
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity
func (q *Queue) Cap() int {
	return cap(q.ch)
}
