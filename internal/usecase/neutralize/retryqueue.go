package neutralize

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"
)

// RetryQueue is a FIFO of groups bumped by a rate-limit response, drained
// serially by a single worker once the main fan-out completes, matching
// the original's dedicated retry pass rather than re-entering the worker
// pool.
type RetryQueue struct {
	mu    sync.Mutex
	items *list.List
}

// NewRetryQueue returns an empty queue.
func NewRetryQueue() *RetryQueue {
	return &RetryQueue{items: list.New()}
}

// Push appends job to the back of the queue.
func (q *RetryQueue) Push(job GroupJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.PushBack(job)
}

// Pop removes and returns the front job, or false if the queue is empty.
func (q *RetryQueue) Pop() (GroupJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.items.Front()
	if front == nil {
		return GroupJob{}, false
	}
	q.items.Remove(front)
	return front.Value.(GroupJob), true
}

// Len reports the number of jobs currently queued.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Drain processes every queued job, one at a time, pausing interGroupDelay
// between each so a still-cooling-down provider isn't hammered again
// immediately. It stops early if ctx is cancelled.
func (q *RetryQueue) Drain(ctx context.Context, interGroupDelay time.Duration, process func(GroupJob) error) {
	for {
		job, ok := q.Pop()
		if !ok {
			return
		}
		if err := process(job); err != nil {
			slog.Warn("neutralize retry queue: group failed again",
				slog.Int64("group_id", job.GroupID), slog.Any("error", err))
		}
		select {
		case <-time.After(interGroupDelay):
		case <-ctx.Done():
			return
		}
	}
}
