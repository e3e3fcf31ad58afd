package reconciler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/lane"
)

// commitStats counts what one commit did.
type commitStats struct {
	mutations int
	deletions int
}

// commitRoot applies the finished tree of root to the host and makes it
// the current tree.
func (r *Reconciler) commitRoot(root *FiberRoot) {
	finishedWork := root.finishedWork
	if finishedWork == nil {
		return
	}
	finishedLane := root.finishedLane
	root.finishedWork = nil
	root.finishedLane = lane.NoLane

	_, span := r.tracer.Start(context.Background(), "reconciler.commit",
		trace.WithAttributes(attribute.String("lane", finishedLane.String())),
	)
	defer span.End()

	root.mu.Lock()
	wasPending := lane.Includes(root.pendingLanes, finishedLane)
	root.pendingLanes = lane.Merge(lane.Remove(root.pendingLanes, finishedLane), root.interleavedLanes)
	root.interleavedLanes = lane.NoLanes
	root.renderingLane = lane.NoLane
	stale := root.callbackNode
	root.callbackNode = nil
	root.callbackPriority = lane.NoLane
	root.lastErr = nil
	root.mu.Unlock()

	if stale != nil {
		r.scheduler.CancelCallback(stale)
	}
	if finishedLane == lane.NoLane || !wasPending {
		err := errors.New(errors.CodeCommitWithoutLane).
			WithDetailf("committed lane %s was not pending", finishedLane)
		r.config.Logger.Error("commit diagnostic", "code", err.Code, "error", err)
	}

	units := r.wipUnits
	r.wipRoot = nil
	r.workInProgress = nil
	r.wipRenderLane = lane.NoLane

	subtree := finishedWork.Flags | finishedWork.SubtreeFlags
	if subtree.Any(PassiveMask) {
		r.schedulePassiveFlush(root)
	}

	var stats commitStats
	if subtree.Any(MutationMask | PassiveMask) {
		r.commitMutationEffects(finishedWork, root, &stats)
	}

	root.current = finishedWork

	span.SetAttributes(
		attribute.Int("mutations", stats.mutations),
		attribute.Int("deletions", stats.deletions),
	)
	r.config.Metrics.commit()
	r.config.Logger.Debug("committed",
		"lane", finishedLane.String(),
		"fibers", units,
		"mutations", stats.mutations,
	)
	if r.config.OnCommit != nil {
		r.config.OnCommit(CommitInfo{
			Root:      root,
			Lane:      finishedLane,
			Fibers:    units,
			Mutations: stats.mutations,
			Deletions: stats.deletions,
		})
	}

	r.ensureRootIsScheduled(root)
}

// commitMutationEffects visits, children first, every fiber of the
// finished tree whose subtree carries mutation or passive flags.
func (r *Reconciler) commitMutationEffects(finishedWork *Fiber, root *FiberRoot, stats *commitStats) {
	next := finishedWork
	for next != nil {
		child := next.Child
		if next.SubtreeFlags.Any(MutationMask|PassiveMask) && child != nil {
			next = child
			continue
		}

		for next != nil {
			r.commitMutationEffectsOnFiber(next, root, stats)
			if next.Sibling != nil {
				next = next.Sibling
				break
			}
			next = next.Return
		}
	}
}

func (r *Reconciler) commitMutationEffectsOnFiber(f *Fiber, root *FiberRoot, stats *commitStats) {
	if f.Flags.Any(Placement) {
		r.commitPlacement(f, stats)
		f.Flags &^= Placement
	}
	if f.Flags.Any(Update) {
		r.commitUpdate(f, stats)
		f.Flags &^= Update
	}
	if f.Flags.Any(ChildDeletion) {
		for _, d := range f.Deletions {
			r.commitDeletion(d, root, stats)
		}
		f.Deletions = nil
		f.Flags &^= ChildDeletion
	}
	if f.Flags.Any(PassiveEffect) {
		if f.Tag == FunctionComponent && f.lastEffect != nil {
			root.pendingPassive.update = append(root.pendingPassive.update, f.lastEffect)
		}
		f.Flags &^= PassiveEffect
	}
}

func (r *Reconciler) commitPlacement(f *Fiber, stats *commitStats) {
	parent, ok := getHostParent(f)
	if !ok {
		r.config.Logger.Warn("placement without a host parent", "fiber", typeName(f))
		return
	}
	before := getHostSibling(f)
	r.insertOrAppendPlacementNode(f, before, parent, stats)
}

// insertOrAppendPlacementNode attaches the top-level host nodes of f to
// parent, before the node before when it is non-nil.
func (r *Reconciler) insertOrAppendPlacementNode(f *Fiber, before host.Instance, parent host.Container, stats *commitStats) {
	if f.Tag == HostComponent || f.Tag == HostText {
		if before != nil {
			r.host.InsertChildToContainer(f.StateNode, parent, before)
			r.config.Metrics.mutation("insert")
		} else {
			r.host.AppendChildToContainer(f.StateNode, parent)
			r.config.Metrics.mutation("append")
		}
		stats.mutations++
		return
	}
	for child := f.Child; child != nil; child = child.Sibling {
		r.insertOrAppendPlacementNode(child, before, parent, stats)
	}
}

func (r *Reconciler) commitUpdate(f *Fiber, stats *commitStats) {
	var oldProps element.Props
	if f.Alternate != nil {
		oldProps = f.Alternate.MemoizedProps
	}
	switch f.Tag {
	case HostText:
		r.host.CommitUpdate(f.StateNode, host.UpdateText, oldProps, f.MemoizedProps)
	case HostComponent:
		r.host.CommitUpdate(f.StateNode, host.UpdateAttributes, oldProps, f.MemoizedProps)
	default:
		r.config.Logger.Warn("update flag on a non-host fiber", "fiber", typeName(f))
		return
	}
	r.config.Metrics.mutation("update")
	stats.mutations++
}

// commitDeletion removes the host nodes of the deleted subtree rooted at
// child, queues unmount effects of its components, then detaches it.
func (r *Reconciler) commitDeletion(child *Fiber, root *FiberRoot, stats *commitStats) {
	var hostRoots, visited []*Fiber
	r.collectUnmounts(child, false, root, &hostRoots, &visited)

	if len(hostRoots) > 0 {
		parent, ok := getHostParent(child)
		if ok {
			for _, h := range hostRoots {
				r.host.RemoveChild(h.StateNode, parent)
				r.config.Metrics.mutation("remove")
				stats.mutations++
			}
		} else {
			r.config.Logger.Warn("deletion without a host parent", "fiber", typeName(child))
		}
	}

	for _, f := range visited {
		detachFiber(f)
	}
	stats.deletions++
}

// collectUnmounts walks a deleted subtree. Host fibers without a host
// ancestor inside the subtree go to hostRoots; components have their
// effects queued for unmount and their state queues closed.
func (r *Reconciler) collectUnmounts(f *Fiber, insideHost bool, root *FiberRoot, hostRoots, visited *[]*Fiber) {
	*visited = append(*visited, f)

	switch f.Tag {
	case HostComponent, HostText:
		if !insideHost {
			*hostRoots = append(*hostRoots, f)
		}
		insideHost = true
	case FunctionComponent:
		if f.lastEffect != nil {
			root.pendingPassive.unmount = append(root.pendingPassive.unmount, f.lastEffect)
		}
		for hk, _ := f.MemoizedState.(*hook); hk != nil; hk = hk.next {
			if hk.queue != nil {
				hk.queue.unmounted.Store(true)
			}
		}
	}

	for c := f.Child; c != nil; c = c.Sibling {
		c.Return = f
		r.collectUnmounts(c, insideHost, root, hostRoots, visited)
	}
}

// getHostParent returns the container of the nearest host ancestor of f.
func getHostParent(f *Fiber) (host.Container, bool) {
	for p := f.Return; p != nil; p = p.Return {
		switch p.Tag {
		case HostComponent:
			return p.StateNode, true
		case HostRoot:
			if root, ok := p.StateNode.(*FiberRoot); ok {
				return root.Container, true
			}
			return nil, false
		}
	}
	return nil, false
}

// getHostSibling returns the first host node after f, in the same host
// parent, that is not itself being placed. nil means append.
func getHostSibling(f *Fiber) host.Instance {
	node := f
siblings:
	for {
		for node.Sibling == nil {
			parent := node.Return
			if parent == nil || parent.Tag == HostComponent || parent.Tag == HostRoot {
				return nil
			}
			node = parent
		}
		node.Sibling.Return = node.Return
		node = node.Sibling

		for node.Tag != HostComponent && node.Tag != HostText {
			if node.Flags.Any(Placement) || node.Child == nil {
				continue siblings
			}
			node.Child.Return = node
			node = node.Child
		}

		if !node.Flags.Any(Placement) {
			return node.StateNode
		}
	}
}
