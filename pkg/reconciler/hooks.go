package reconciler

import (
	"sync/atomic"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
)

// hookKind identifies what a hook slot holds.
type hookKind uint8

const (
	hookState hookKind = iota
	hookReducer
	hookEffect
	hookRef
	hookMemo
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookReducer:
		return "UseReducer"
	case hookEffect:
		return "UseEffect"
	case hookRef:
		return "UseRef"
	case hookMemo:
		return "UseMemo"
	default:
		return "unknown"
	}
}

// hook is one slot of a function component's hook list.
type hook struct {
	kind          hookKind
	memoizedState any

	// State and reducer hooks only.
	baseState any
	baseQueue *update
	queue     *updateQueue
	reducer   any

	next *hook
}

// Hooks is the render context of one function component invocation. It is
// valid only while the component's Render runs; calling a hook through a
// stale Hooks panics.
type Hooks struct {
	r          *Reconciler
	root       *FiberRoot
	fiber      *Fiber
	current    *Fiber
	renderLane lane.Lane

	currentHook *hook
	wipHook     *hook

	done atomic.Bool
}

// Component returns the component being rendered.
func (h *Hooks) Component() *Component {
	c, _ := h.fiber.Type.(*Component)
	return c
}

// renderWithHooks invokes the component of wip and returns its children.
func (r *Reconciler) renderWithHooks(wip *Fiber, renderLane lane.Lane) any {
	comp := wip.Type.(*Component)

	wip.MemoizedState = nil
	wip.lastEffect = nil

	h := &Hooks{
		r:          r,
		root:       r.wipRoot,
		fiber:      wip,
		current:    wip.Alternate,
		renderLane: renderLane,
	}
	defer h.done.Store(true)

	children := comp.Render(h, wip.PendingProps)

	if h.current != nil {
		var remaining *hook
		if h.currentHook == nil {
			remaining, _ = h.current.MemoizedState.(*hook)
		} else {
			remaining = h.currentHook.next
		}
		if remaining != nil {
			panic(errors.New(errors.CodeHookOrderMismatch).
				WithDetailf("%s called fewer hooks than during its previous render", comp))
		}
	}
	return children
}

// nextHook appends a hook of kind to the work-in-progress list. On update it
// also returns the matching hook of the committed render, whose fields the
// new hook starts from.
func (h *Hooks) nextHook(kind hookKind) (wip, current *hook) {
	if h == nil || h.done.Load() {
		panic(errors.New(errors.CodeHookOutsideRender).
			WithDetailf("%s called outside of a component render", kind).
			WithCaller(2))
	}

	if h.current != nil {
		if h.currentHook == nil {
			current, _ = h.current.MemoizedState.(*hook)
		} else {
			current = h.currentHook.next
		}
		if current == nil {
			panic(errors.New(errors.CodeHookOrderMismatch).
				WithDetailf("%s called more hooks than during its previous render", h.Component()).
				WithCaller(2))
		}
		if current.kind != kind {
			panic(errors.New(errors.CodeHookOrderMismatch).
				WithDetailf("%s: expected %s, got %s", h.Component(), current.kind, kind).
				WithCaller(2))
		}
		h.currentHook = current
		wip = &hook{
			kind:          kind,
			memoizedState: current.memoizedState,
			baseState:     current.baseState,
			baseQueue:     current.baseQueue,
			queue:         current.queue,
			reducer:       current.reducer,
		}
	} else {
		wip = &hook{kind: kind}
	}

	if h.wipHook == nil {
		h.fiber.MemoizedState = wip
	} else {
		h.wipHook.next = wip
	}
	h.wipHook = wip
	return wip, current
}

// processQueue moves the pending updates of hk into the committed hook's
// base queue, then folds the base queue for the render lane.
func (h *Hooks) processQueue(hk, current *hook) {
	if pending := hk.queue.take(); pending != nil {
		current.baseQueue = mergeQueues(current.baseQueue, pending)
	}
	res := processUpdateQueue(current.baseState, current.baseQueue, h.renderLane)
	hk.memoizedState = res.memoizedState
	hk.baseState = res.baseState
	hk.baseQueue = res.baseQueue
}

// as converts a stored state value back to T. A nil interface becomes the
// zero value.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// Setter updates a state hook. Setters are comparable and stay the same
// across renders of the component. Safe from any goroutine.
type Setter[T any] struct {
	r *Reconciler
	q *updateQueue
}

// Set replaces the state with v.
func (s Setter[T]) Set(v T) {
	s.dispatch(func(any) any { return v })
}

// Update replaces the state with fn applied to the previous state.
func (s Setter[T]) Update(fn func(prev T) T) {
	s.dispatch(func(prev any) any { return fn(as[T](prev)) })
}

func (s Setter[T]) dispatch(action func(any) any) {
	if s.q == nil {
		return
	}
	s.r.dispatchUpdate(s.q, action)
}

// dispatchUpdate enqueues action at the lane of the ambient priority.
func (r *Reconciler) dispatchUpdate(q *updateQueue, action func(any) any) {
	if q.unmounted.Load() {
		r.config.Logger.Debug("state update on an unmounted component ignored")
		return
	}
	if q.root == nil {
		r.config.Logger.Warn("state update on a fiber without a root ignored")
		return
	}
	l := lane.RequestUpdateLane(r.scheduler)
	q.enqueue(&update{action: action, lane: l})
	r.scheduleUpdateOnRoot(q.root, l)
}

// UseState returns the current state and its setter. initial is used on the
// first render only.
func UseState[T any](h *Hooks, initial T) (T, Setter[T]) {
	hk, current := h.nextHook(hookState)
	if current == nil {
		hk.memoizedState = initial
		hk.baseState = initial
		hk.queue = &updateQueue{root: h.root}
	} else {
		h.processQueue(hk, current)
	}
	return as[T](hk.memoizedState), Setter[T]{r: h.r, q: hk.queue}
}

// reducerRef holds the latest reducer so queued actions use the one of the
// render that processes them.
type reducerRef[S, A any] struct {
	fn func(S, A) S
}

// Dispatch sends actions to a reducer hook. Comparable and stable across
// renders; safe from any goroutine.
type Dispatch[S, A any] struct {
	r   *Reconciler
	q   *updateQueue
	ref *reducerRef[S, A]
}

// Dispatch enqueues action.
func (d Dispatch[S, A]) Dispatch(action A) {
	if d.q == nil {
		return
	}
	ref := d.ref
	d.r.dispatchUpdate(d.q, func(prev any) any {
		return ref.fn(as[S](prev), action)
	})
}

// UseReducer returns the state managed by reducer and a dispatcher for its
// actions.
func UseReducer[S, A any](h *Hooks, reducer func(S, A) S, initial S) (S, Dispatch[S, A]) {
	hk, current := h.nextHook(hookReducer)
	var ref *reducerRef[S, A]
	if current == nil {
		ref = &reducerRef[S, A]{fn: reducer}
		hk.memoizedState = initial
		hk.baseState = initial
		hk.queue = &updateQueue{root: h.root}
		hk.reducer = ref
	} else {
		ref = hk.reducer.(*reducerRef[S, A])
		ref.fn = reducer
		h.processQueue(hk, current)
	}
	return as[S](hk.memoizedState), Dispatch[S, A]{r: h.r, q: hk.queue, ref: ref}
}

// UseEffect schedules create to run after the commit of this render. The
// function create returns, if any, runs before the next create and on
// unmount. With nil deps create runs after every commit; otherwise only
// when a dependency changed. The dependency count must not change between
// renders.
func UseEffect(h *Hooks, create func() func(), deps []any) {
	hk, current := h.nextHook(hookEffect)
	if current == nil {
		h.fiber.Flags |= PassiveEffect
		hk.memoizedState = h.pushEffect(effectHasSideEffect|effectPassive, create, &effectInstance{}, deps)
		return
	}

	prev := current.memoizedState.(*effect)
	if deps != nil && prev.deps != nil {
		if len(deps) != len(prev.deps) {
			panic(errors.New(errors.CodeDepsLengthChanged).
				WithDetailf("%s: %d dependencies, previously %d", h.Component(), len(deps), len(prev.deps)).
				WithCaller(1))
		}
		if depsEqual(deps, prev.deps) {
			hk.memoizedState = h.pushEffect(effectPassive, create, prev.inst, deps)
			return
		}
	}
	h.fiber.Flags |= PassiveEffect
	hk.memoizedState = h.pushEffect(effectHasSideEffect|effectPassive, create, prev.inst, deps)
}

// pushEffect appends an effect to the fiber's circular effect list.
func (h *Hooks) pushEffect(tag effectTag, create func() func(), inst *effectInstance, deps []any) *effect {
	e := &effect{tag: tag, create: create, inst: inst, deps: deps}
	f := h.fiber
	if f.lastEffect == nil {
		e.next = e
	} else {
		e.next = f.lastEffect.next
		f.lastEffect.next = e
	}
	f.lastEffect = e
	return e
}

// Ref is a mutable box that survives re-renders. Writing Current does not
// schedule a render.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render.
func UseRef[T any](h *Hooks, initial T) *Ref[T] {
	hk, current := h.nextHook(hookRef)
	if current == nil {
		hk.memoizedState = &Ref[T]{Current: initial}
	}
	return hk.memoizedState.(*Ref[T])
}

type memoEntry struct {
	value any
	deps  []any
}

// UseMemo returns the value of compute, recomputed only when deps change.
// Nil deps recompute on every render.
func UseMemo[T any](h *Hooks, compute func() T, deps []any) T {
	hk, current := h.nextHook(hookMemo)
	if current != nil {
		prev := current.memoizedState.(*memoEntry)
		if deps != nil && prev.deps != nil {
			if len(deps) != len(prev.deps) {
				panic(errors.New(errors.CodeDepsLengthChanged).
					WithDetailf("%s: %d dependencies, previously %d", h.Component(), len(deps), len(prev.deps)).
					WithCaller(1))
			}
			if depsEqual(deps, prev.deps) {
				return as[T](prev.value)
			}
		}
	}
	entry := &memoEntry{value: compute(), deps: deps}
	hk.memoizedState = entry
	return as[T](entry.value)
}

// UseCallback returns fn as first memoized with deps.
func UseCallback[F any](h *Hooks, fn F, deps []any) F {
	return UseMemo(h, func() F { return fn }, deps)
}
