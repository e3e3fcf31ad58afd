// Package reconciler keeps a host tree in sync with a tree of elements.
//
// Each mounted tree has a FiberRoot. Updates, from UpdateContainer or from
// state setters, are tagged with a lane derived from the ambient scheduler
// priority. The reconciler renders the most urgent lane into a
// work-in-progress fiber tree, yielding to the scheduler between units of
// work, then commits the result to the host in one uninterruptible pass.
// Passive effects run in a later task.
//
// A more urgent update that arrives during a render discards the partial
// work and restarts at the urgent lane; the skipped updates are replayed in
// order by a later render.
//
//	loop := scheduler.New()
//	h := memhost.New(memhost.WithMicrotasks(loop.QueueMicrotask))
//	r := reconciler.New(h, loop)
//	root := r.CreateContainer(h.NewContainer())
//	r.UpdateContainer(element.New(App, nil), root)
//	loop.RunUntilIdle()
//
// Function components use hooks through the *Hooks passed to Render:
// UseState, UseReducer, UseEffect, UseRef, UseMemo and UseCallback. Hooks
// must be called in the same order on every render.
package reconciler
