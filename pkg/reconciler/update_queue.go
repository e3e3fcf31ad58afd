package reconciler

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// update is one pending state transition.
type update struct {
	action func(prev any) any
	lane   lane.Lane
	next   *update
}

// updateQueue receives updates from any goroutine. pending points at the
// last update of a circular list, so pending.next is the first.
type updateQueue struct {
	mu      sync.Mutex
	pending *update

	// root is the tree the queue belongs to. Set once at creation so
	// producers never walk fibers owned by the render goroutine.
	root *FiberRoot

	// unmounted is set when the owning fiber is deleted; later updates are
	// dropped.
	unmounted atomic.Bool
}

func (q *updateQueue) enqueue(u *update) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		u.next = u
	} else {
		u.next = q.pending.next
		q.pending.next = u
	}
	q.pending = u
}

// take detaches and returns the pending list.
func (q *updateQueue) take() *update {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := q.pending
	q.pending = nil
	return p
}

// mergeQueues appends the circular list pending after base and returns the
// new tail. Either may be nil.
func mergeQueues(base, pending *update) *update {
	if pending == nil {
		return base
	}
	if base != nil {
		baseFirst := base.next
		base.next = pending.next
		pending.next = baseFirst
	}
	return pending
}

// processResult is the outcome of folding a queue for one lane.
type processResult struct {
	memoizedState any
	baseState     any
	baseQueue     *update
	skippedLanes  lane.Lanes
}

// processUpdateQueue folds the updates of baseQueue that belong to
// renderLane over baseState, in enqueue order. Updates of other lanes are
// kept in the returned base queue together with every update after the
// first skipped one, so a later render replays them in their original
// order.
func processUpdateQueue(baseState any, baseQueue *update, renderLane lane.Lane) processResult {
	result := processResult{memoizedState: baseState, baseState: baseState}
	if baseQueue == nil {
		return result
	}

	var newBaseFirst, newBaseLast *update
	state := baseState
	newBaseState := baseState

	first := baseQueue.next
	u := first
	for {
		if !lane.Includes(renderLane, u.lane) {
			clone := &update{action: u.action, lane: u.lane}
			if newBaseLast == nil {
				newBaseFirst = clone
				newBaseState = state
			} else {
				newBaseLast.next = clone
			}
			newBaseLast = clone
			result.skippedLanes = lane.Merge(result.skippedLanes, u.lane)
		} else {
			if newBaseLast != nil {
				// Replayed after the skipped update on its next render.
				clone := &update{action: u.action, lane: lane.NoLane}
				newBaseLast.next = clone
				newBaseLast = clone
			}
			state = u.action(state)
		}
		u = u.next
		if u == first {
			break
		}
	}

	if newBaseLast == nil {
		newBaseState = state
	} else {
		newBaseLast.next = newBaseFirst
	}

	result.memoizedState = state
	result.baseState = newBaseState
	result.baseQueue = newBaseLast
	return result
}
