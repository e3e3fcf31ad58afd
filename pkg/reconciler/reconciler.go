package reconciler

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Reconciler renders element trees into a host, scheduling the work on a
// cooperative scheduler.
//
// # Thread Safety
//
// Rendering, commits and passive effects run on the goroutine that drives
// the scheduler. UpdateContainer, Retry and state setters may be called from
// any goroutine.
type Reconciler struct {
	host      host.Config
	scheduler scheduler.Scheduler
	config    Config
	tracer    trace.Tracer

	// Render-phase cursor. Only touched by the driving goroutine.
	wipRoot        *FiberRoot
	workInProgress *Fiber
	wipRenderLane  lane.Lane
	wipUnits       int

	syncMu       sync.Mutex
	syncQueue    []func()
	flushingSync bool

	rootsMu sync.Mutex
	roots   []*FiberRoot
}

// New creates a Reconciler rendering into h and scheduling on s.
func New(h host.Config, s scheduler.Scheduler, opts ...Option) *Reconciler {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.TracerName == "" {
		config.TracerName = DefaultTracerName
	}

	return &Reconciler{
		host:      h,
		scheduler: s,
		config:    config,
		tracer:    otel.Tracer(config.TracerName),
	}
}

// Config returns a copy of the reconciler configuration.
func (r *Reconciler) Config() Config {
	return r.config.Clone()
}

// Roots returns the roots created by CreateContainer.
func (r *Reconciler) Roots() []*FiberRoot {
	r.rootsMu.Lock()
	defer r.rootsMu.Unlock()
	out := make([]*FiberRoot, len(r.roots))
	copy(out, r.roots)
	return out
}

// FiberRoot is the handle of one mounted tree.
type FiberRoot struct {
	// Container is the host node the tree renders into.
	Container host.Container

	current      *Fiber
	finishedWork *Fiber
	finishedLane lane.Lane

	// mu guards the scheduling state below; producers on other goroutines
	// update it.
	mu               sync.Mutex
	pendingLanes     lane.Lanes
	renderingLane    lane.Lane
	interleavedLanes lane.Lanes
	callbackNode     *scheduler.Task
	callbackPriority lane.Lane
	lastErr          error

	pendingPassive   pendingPassiveEffects
	passiveScheduled bool
}

// pendingPassiveEffects holds effect list tails collected by commits and
// not yet flushed.
type pendingPassiveEffects struct {
	unmount []*effect
	update  []*effect
}

// Current returns the root fiber of the committed tree. Only safe on the
// goroutine driving the scheduler.
func (root *FiberRoot) Current() *Fiber {
	return root.current
}

// PendingLanes returns the lanes with unprocessed updates.
func (root *FiberRoot) PendingLanes() lane.Lanes {
	root.mu.Lock()
	defer root.mu.Unlock()
	return root.pendingLanes
}

// LastError returns the error of the last failed render, cleared by the
// next successful commit or by Retry.
func (root *FiberRoot) LastError() error {
	root.mu.Lock()
	defer root.mu.Unlock()
	return root.lastErr
}

// CreateContainer creates a root rendering into container.
func (r *Reconciler) CreateContainer(container host.Container) *FiberRoot {
	hostRootFiber := newFiber(HostRoot, nil, "")
	root := &FiberRoot{
		Container: container,
		current:   hostRootFiber,
	}
	hostRootFiber.StateNode = root
	hostRootFiber.rootQueue = &updateQueue{root: root}

	r.rootsMu.Lock()
	r.roots = append(r.roots, root)
	r.rootsMu.Unlock()
	return root
}

// UpdateContainer renders el into root at the ambient scheduler priority.
// A nil el clears the root. It returns el.
func (r *Reconciler) UpdateContainer(el *element.Element, root *FiberRoot) *element.Element {
	l := lane.RequestUpdateLane(r.scheduler)
	var children any
	if el != nil {
		children = el
	}
	root.current.rootQueue.enqueue(&update{
		action: func(any) any { return children },
		lane:   l,
	})
	r.scheduleUpdateOnRoot(root, l)
	return el
}

// FlushSync runs fn at Immediate priority, then renders and commits every
// pending Sync update before returning. fn may be nil.
func (r *Reconciler) FlushSync(fn func()) {
	if fn != nil {
		r.scheduler.RunWithPriority(scheduler.ImmediatePriority, fn)
	}
	r.flushSyncCallbacks()
}

// Retry schedules root again after a failed render.
func (r *Reconciler) Retry(root *FiberRoot) {
	root.mu.Lock()
	root.lastErr = nil
	root.mu.Unlock()
	r.ensureRootIsScheduled(root)
}

// FlushPassiveEffects runs the passive effects collected by earlier commits
// of root. Reports whether any were pending.
func (r *Reconciler) FlushPassiveEffects(root *FiberRoot) bool {
	return r.flushPassiveEffects(root)
}

// scheduleUpdateOnRoot records an update of lane l and makes sure a
// callback is scheduled for the root's most urgent lane.
func (r *Reconciler) scheduleUpdateOnRoot(root *FiberRoot, l lane.Lane) {
	root.mu.Lock()
	root.pendingLanes = lane.Merge(root.pendingLanes, l)
	if root.renderingLane != lane.NoLane {
		root.interleavedLanes = lane.Merge(root.interleavedLanes, l)
	}
	root.mu.Unlock()

	r.ensureRootIsScheduled(root)
}
