package scheduler

import "time"

// Callback is a unit of scheduled work. didTimeout reports that the task's
// expiration time has passed. Returning a non-nil Callback keeps the task
// queued and resumes it later with the returned continuation.
type Callback func(didTimeout bool) Callback

// Task is a handle to a scheduled callback; it doubles as the cancellation
// token.
type Task struct {
	id             uint64
	callback       Callback
	priority       Priority
	startTime      time.Time
	expirationTime time.Time
	canceled       bool
	index          int
}

// ID returns the task's sequence number.
func (t *Task) ID() uint64 {
	if t == nil {
		return 0
	}
	return t.id
}

// Priority returns the priority the task was scheduled at.
func (t *Task) Priority() Priority {
	if t == nil {
		return NoPriority
	}
	return t.priority
}

// taskHeap is a min-heap of tasks ordered by expiration time, then by
// insertion order.
type taskHeap []*Task

// Implement heap.Interface for taskHeap
func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].expirationTime.Equal(h[j].expirationTime) {
		return h[i].id < h[j].id
	}
	return h[i].expirationTime.Before(h[j].expirationTime)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
