package reconciler

import (
	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
)

// beginWork computes the children of wip and returns the first one, or nil
// when wip is a leaf.
func (r *Reconciler) beginWork(wip *Fiber, renderLane lane.Lane) *Fiber {
	switch wip.Tag {
	case HostRoot:
		return r.updateHostRoot(wip, renderLane)
	case HostComponent, Fragment:
		r.reconcileChildren(wip, wip.PendingProps.Children())
		return wip.Child
	case FunctionComponent:
		children := r.renderWithHooks(wip, renderLane)
		r.reconcileChildren(wip, children)
		return wip.Child
	case HostText:
		return nil
	}

	if r.config.DebugMode {
		panic(errors.New(errors.CodeUnknownFiberTag).
			WithDetailf("beginWork: fiber tag %s", wip.Tag))
	}
	r.config.Logger.Warn("beginWork: unknown fiber tag", "tag", wip.Tag.String())
	return nil
}

// updateHostRoot folds the root's update queue for renderLane; the result is
// the element rendered into the container.
func (r *Reconciler) updateHostRoot(wip *Fiber, renderLane lane.Lane) *Fiber {
	current := wip.Alternate
	if pending := wip.rootQueue.take(); pending != nil {
		current.baseQueue = mergeQueues(current.baseQueue, pending)
	}

	res := processUpdateQueue(current.baseState, current.baseQueue, renderLane)
	wip.baseState = res.baseState
	wip.baseQueue = res.baseQueue
	wip.MemoizedState = res.memoizedState

	r.reconcileChildren(wip, wip.MemoizedState)
	return wip.Child
}

// reconcileChildren sets wip.Child from children, diffing against the
// committed children when wip has a committed counterpart.
func (r *Reconciler) reconcileChildren(wip *Fiber, children any) {
	current := wip.Alternate
	if current == nil {
		wip.Child = childReconciler{r: r}.reconcileChildFibers(wip, nil, children)
		return
	}
	wip.Child = childReconciler{r: r, trackEffects: true}.reconcileChildFibers(wip, current.Child, children)
}
