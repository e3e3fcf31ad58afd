package reconciler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

type exitStatus uint8

const (
	rootInProgress exitStatus = iota
	rootCompleted
	rootErrored
)

func (s exitStatus) String() string {
	switch s {
	case rootInProgress:
		return "yielded"
	case rootCompleted:
		return "completed"
	default:
		return "errored"
	}
}

// ensureRootIsScheduled makes sure exactly one callback is scheduled for
// the most urgent pending lane of root.
func (r *Reconciler) ensureRootIsScheduled(root *FiberRoot) {
	root.mu.Lock()
	next := lane.Highest(root.pendingLanes)
	existing := root.callbackNode

	if next == lane.NoLane {
		root.callbackNode = nil
		root.callbackPriority = lane.NoLane
		root.mu.Unlock()
		if existing != nil {
			r.scheduler.CancelCallback(existing)
		}
		return
	}
	if next == root.callbackPriority {
		root.mu.Unlock()
		return
	}
	if existing != nil {
		r.scheduler.CancelCallback(existing)
	}

	root.callbackPriority = next
	if next == lane.SyncLane {
		root.callbackNode = nil
		root.mu.Unlock()
		r.scheduleSyncCallback(func() { r.performSyncWorkOnRoot(root) })
		r.host.ScheduleMicrotask(r.flushSyncCallbacks)
		return
	}

	// Scheduling under root.mu keeps a concurrent producer from installing
	// a second callback between the check and the store.
	root.callbackNode = r.scheduler.ScheduleCallback(lane.ToSchedulerPriority(next), func(didTimeout bool) scheduler.Callback {
		return r.performConcurrentWorkOnRoot(root, didTimeout)
	})
	root.mu.Unlock()
}

// performConcurrentWorkOnRoot is the scheduler task of a non-Sync root. It
// returns itself while the render yields.
func (r *Reconciler) performConcurrentWorkOnRoot(root *FiberRoot, didTimeout bool) scheduler.Callback {
	root.mu.Lock()
	original := root.callbackNode
	root.mu.Unlock()

	// Effects of the previous commit may schedule more urgent work.
	if r.flushPassiveEffects(root) {
		root.mu.Lock()
		changed := root.callbackNode != original
		root.mu.Unlock()
		if changed {
			return nil
		}
	}

	root.mu.Lock()
	next := lane.Highest(root.pendingLanes)
	root.mu.Unlock()
	if next == lane.NoLane {
		return nil
	}

	timeSlice := next != lane.SyncLane && !didTimeout
	status, err := r.renderRoot(root, next, timeSlice)

	switch status {
	case rootInProgress:
		root.mu.Lock()
		same := root.callbackNode == original
		root.mu.Unlock()
		if same {
			return func(didTimeout bool) scheduler.Callback {
				return r.performConcurrentWorkOnRoot(root, didTimeout)
			}
		}
		return nil
	case rootCompleted:
		root.finishedWork = root.current.Alternate
		root.finishedLane = next
		r.commitRoot(root)
	case rootErrored:
		r.handleRenderError(root, next, err)
	}
	return nil
}

// performSyncWorkOnRoot renders and commits the Sync lane of root without
// yielding.
func (r *Reconciler) performSyncWorkOnRoot(root *FiberRoot) {
	root.mu.Lock()
	next := lane.Highest(root.pendingLanes)
	root.mu.Unlock()
	if next != lane.SyncLane {
		r.ensureRootIsScheduled(root)
		return
	}

	status, err := r.renderRoot(root, next, false)
	switch status {
	case rootCompleted:
		root.finishedWork = root.current.Alternate
		root.finishedLane = next
		r.commitRoot(root)
	case rootErrored:
		r.handleRenderError(root, next, err)
	}
}

// prepareFreshStack discards any in-progress render and starts a new one
// of root at renderLane.
func (r *Reconciler) prepareFreshStack(root *FiberRoot, renderLane lane.Lane) {
	if r.workInProgress != nil {
		r.config.Metrics.restart()
		r.config.Logger.Debug("render restarted",
			"from", r.wipRenderLane.String(),
			"to", renderLane.String(),
		)
	}
	if prev := r.wipRoot; prev != nil && prev != root {
		prev.mu.Lock()
		prev.renderingLane = lane.NoLane
		prev.mu.Unlock()
	}

	root.finishedWork = nil
	root.finishedLane = lane.NoLane

	r.wipRoot = root
	r.wipRenderLane = renderLane
	r.wipUnits = 0
	r.workInProgress = createWorkInProgress(root.current, nil)

	root.mu.Lock()
	root.renderingLane = renderLane
	root.interleavedLanes = lane.NoLanes
	root.mu.Unlock()
}

// resetWorkInProgress forgets the render-phase cursor.
func (r *Reconciler) resetWorkInProgress(root *FiberRoot) {
	r.wipRoot = nil
	r.workInProgress = nil
	r.wipRenderLane = lane.NoLane

	root.mu.Lock()
	root.renderingLane = lane.NoLane
	root.mu.Unlock()
}

// renderRoot builds the work-in-progress tree of root for renderLane. With
// timeSlice set it returns rootInProgress once the scheduler asks it to
// yield; calling it again with the same root and lane resumes the render.
func (r *Reconciler) renderRoot(root *FiberRoot, renderLane lane.Lane, timeSlice bool) (status exitStatus, err error) {
	if r.wipRoot != root || r.wipRenderLane != renderLane {
		r.prepareFreshStack(root, renderLane)
	}

	_, span := r.tracer.Start(context.Background(), "reconciler.render",
		trace.WithAttributes(
			attribute.String("lane", renderLane.String()),
			attribute.Bool("time_sliced", timeSlice),
		),
	)
	start := time.Now()
	units := 0

	defer func() {
		if rec := recover(); rec != nil {
			err = errors.FromPanic(rec, errors.CodeRenderPanic)
			status = rootErrored
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.resetWorkInProgress(root)
		}
		span.SetAttributes(
			attribute.Int("units", units),
			attribute.String("status", status.String()),
		)
		span.End()
		r.config.Metrics.render(renderLane.String(), status.String(), time.Since(start).Seconds())
	}()

	for r.workInProgress != nil {
		r.performUnitOfWork(r.workInProgress, renderLane)
		units++
		if timeSlice && r.workInProgress != nil && r.scheduler.ShouldYield() {
			r.config.Metrics.yield()
			return rootInProgress, nil
		}
	}

	r.wipRoot = nil
	r.wipRenderLane = lane.NoLane
	return rootCompleted, nil
}

// performUnitOfWork begins unit and moves to its first child, or completes
// it when it has none.
func (r *Reconciler) performUnitOfWork(unit *Fiber, renderLane lane.Lane) {
	next := r.beginWork(unit, renderLane)
	unit.MemoizedProps = unit.PendingProps
	r.wipUnits++
	if next == nil {
		r.completeUnitOfWork(unit)
	} else {
		r.workInProgress = next
	}
}

// completeUnitOfWork completes unit and its ancestors until one has an
// unfinished sibling, which becomes the next unit.
func (r *Reconciler) completeUnitOfWork(unit *Fiber) {
	node := unit
	for node != nil {
		r.completeWork(node)
		if node.Sibling != nil {
			r.workInProgress = node.Sibling
			return
		}
		node = node.Return
		r.workInProgress = node
	}
}

// handleRenderError abandons the failed render. The lane stays pending and
// is not rescheduled until Retry or a new update.
func (r *Reconciler) handleRenderError(root *FiberRoot, renderLane lane.Lane, err error) {
	root.mu.Lock()
	root.callbackNode = nil
	root.callbackPriority = lane.NoLane
	root.lastErr = err
	root.mu.Unlock()

	attrs := []any{"lane", renderLane.String(), "error", err}
	if e, ok := err.(*errors.Error); ok {
		attrs = append(attrs, "code", e.Code)
	}
	r.config.Logger.Error("render failed", attrs...)
	r.config.Metrics.renderError()

	if r.config.OnRenderError != nil {
		r.config.OnRenderError(RenderError{Root: root, Lane: renderLane, Err: err})
	}
}
