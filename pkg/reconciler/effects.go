package reconciler

import (
	"fmt"

	"github.com/vango-dev/reconciler/pkg/scheduler"
)

type effectTag uint8

const (
	// effectHasSideEffect marks an effect whose create must run after this
	// commit.
	effectHasSideEffect effectTag = 1 << iota
	effectPassive
)

// effectInstance is shared by every render of one effect hook, so a
// destroy function recorded by one flush is seen by the next.
type effectInstance struct {
	destroy   func()
	unmounted bool
}

type effect struct {
	tag    effectTag
	create func() func()
	deps   []any
	inst   *effectInstance
	next   *effect
}

// forEachEffect calls fn for each effect of the circular list ending at
// last, in hook order.
func forEachEffect(last *effect, fn func(e *effect)) {
	if last == nil {
		return
	}
	first := last.next
	e := first
	for {
		next := e.next
		fn(e)
		e = next
		if e == first {
			return
		}
	}
}

// schedulePassiveFlush queues one Normal priority task that flushes the
// passive effects of root. Further commits before it runs share it.
func (r *Reconciler) schedulePassiveFlush(root *FiberRoot) {
	if root.passiveScheduled {
		return
	}
	root.passiveScheduled = true
	r.scheduler.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Callback {
		r.flushPassiveEffects(root)
		return nil
	})
}

// flushPassiveEffects runs pending effects in three passes: destroys of
// unmounted components, destroys of effects about to re-run, then creates.
// Reports whether anything was pending.
func (r *Reconciler) flushPassiveEffects(root *FiberRoot) bool {
	root.passiveScheduled = false
	pending := root.pendingPassive
	root.pendingPassive = pendingPassiveEffects{}
	if len(pending.unmount) == 0 && len(pending.update) == 0 {
		return false
	}

	unmounted := 0
	for _, last := range pending.unmount {
		forEachEffect(last, func(e *effect) {
			if destroy := e.inst.destroy; destroy != nil {
				e.inst.destroy = nil
				r.runEffect("destroy", func() { destroy() })
				unmounted++
			}
			e.inst.unmounted = true
		})
	}

	destroyed := 0
	for _, last := range pending.update {
		forEachEffect(last, func(e *effect) {
			if e.tag&effectHasSideEffect == 0 || e.inst.unmounted {
				return
			}
			if destroy := e.inst.destroy; destroy != nil {
				e.inst.destroy = nil
				r.runEffect("destroy", func() { destroy() })
				destroyed++
			}
		})
	}

	created := 0
	for _, last := range pending.update {
		forEachEffect(last, func(e *effect) {
			if e.tag&effectHasSideEffect == 0 || e.inst.unmounted {
				return
			}
			// Left over when a later commit re-ran this effect before
			// the earlier commit's flush.
			if destroy := e.inst.destroy; destroy != nil {
				e.inst.destroy = nil
				r.runEffect("destroy", func() { destroy() })
				destroyed++
			}
			inst := e.inst
			create := e.create
			r.runEffect("create", func() { inst.destroy = create() })
			created++
		})
	}

	r.config.Metrics.passive("unmount", unmounted)
	r.config.Metrics.passive("destroy", destroyed)
	r.config.Metrics.passive("create", created)
	r.config.Logger.Debug("passive effects flushed",
		"unmount", unmounted,
		"destroy", destroyed,
		"create", created,
	)

	r.flushSyncCallbacks()
	return true
}

// runEffect runs one effect function. A panic is logged and does not stop
// the remaining effects.
func (r *Reconciler) runEffect(phase string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.config.Logger.Error("effect panicked",
				"phase", phase,
				"panic", fmt.Sprint(rec),
			)
		}
	}()
	fn()
}
