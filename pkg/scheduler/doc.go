// Package scheduler provides a cooperative, priority-ordered task scheduler.
//
// The scheduler owns a single logical thread of control. Tasks are callbacks
// tagged with a Priority; the highest-priority, earliest-expiring task runs
// first. A task may give control back by returning a continuation, which keeps
// its slot in the queue and is resumed on a later turn. Long-running callbacks
// cooperate by polling ShouldYield between discrete units of work.
//
// # Microtasks
//
// QueueMicrotask defers a function to the soonest possible future turn:
// microtasks drain before the next task is picked and after every task, in
// FIFO order, including microtasks queued while draining.
//
// # Driving the loop
//
// Tests and embedders drive the loop explicitly with RunOnce or RunUntilIdle.
// Long-lived processes call Run(ctx), which blocks and wakes whenever work is
// scheduled from any goroutine.
//
//	loop := scheduler.New()
//	loop.ScheduleCallback(scheduler.NormalPriority, func(didTimeout bool) scheduler.Callback {
//	    fmt.Println("hello")
//	    return nil
//	})
//	loop.RunUntilIdle()
//
// # Thread Safety
//
// Scheduling, cancelling and queueing microtasks are safe from any goroutine.
// Callbacks themselves run on the goroutine driving the loop. The ambient
// priority (CurrentPriorityLevel) is loop-wide, not per goroutine.
package scheduler
