package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/pkg/scheduler"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func once(fn func()) scheduler.Callback {
	return func(bool) scheduler.Callback {
		fn()
		return nil
	}
}

func TestRunsByPriority(t *testing.T) {
	loop := scheduler.New(scheduler.WithClock(newManualClock()))

	var order []string
	loop.ScheduleCallback(scheduler.IdlePriority, once(func() { order = append(order, "idle") }))
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() { order = append(order, "normal") }))
	loop.ScheduleCallback(scheduler.ImmediatePriority, once(func() { order = append(order, "immediate") }))
	loop.ScheduleCallback(scheduler.UserBlockingPriority, once(func() { order = append(order, "user") }))
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() { order = append(order, "normal2") }))

	ran := loop.RunUntilIdle()

	assert.Equal(t, 5, ran)
	assert.Equal(t, []string{"immediate", "user", "normal", "normal2", "idle"}, order)
}

func TestCancelCallback(t *testing.T) {
	loop := scheduler.New()

	ran := false
	task := loop.ScheduleCallback(scheduler.NormalPriority, once(func() { ran = true }))
	loop.CancelCallback(task)
	loop.CancelCallback(task)
	loop.CancelCallback(nil)

	assert.Equal(t, 0, loop.RunUntilIdle())
	assert.False(t, ran)
}

func TestContinuationKeepsTask(t *testing.T) {
	loop := scheduler.New()

	steps := 0
	var work scheduler.Callback
	work = func(bool) scheduler.Callback {
		steps++
		if steps < 3 {
			return work
		}
		return nil
	}
	task := loop.ScheduleCallback(scheduler.NormalPriority, work)

	require.True(t, loop.RunOnce())
	tasks, _ := loop.Pending()
	assert.Equal(t, 1, tasks, "continuation keeps its slot")

	loop.RunUntilIdle()
	assert.Equal(t, 3, steps)
	assert.Equal(t, scheduler.NormalPriority, task.Priority())

	tasks, _ = loop.Pending()
	assert.Zero(t, tasks)
}

func TestCancelDuringRunDropsContinuation(t *testing.T) {
	loop := scheduler.New()

	var task *scheduler.Task
	calls := 0
	var work scheduler.Callback
	work = func(bool) scheduler.Callback {
		calls++
		loop.CancelCallback(task)
		return work
	}
	task = loop.ScheduleCallback(scheduler.NormalPriority, work)

	loop.RunUntilIdle()
	assert.Equal(t, 1, calls)
}

func TestMicrotasksDrainAroundTasks(t *testing.T) {
	loop := scheduler.New()

	var order []string
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() {
		order = append(order, "task1")
		loop.QueueMicrotask(func() { order = append(order, "micro-from-task1") })
	}))
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() { order = append(order, "task2") }))
	loop.QueueMicrotask(func() { order = append(order, "micro") })

	loop.RunUntilIdle()

	assert.Equal(t, []string{"micro", "task1", "micro-from-task1", "task2"}, order)
}

func TestDrainMicrotasksRunsNested(t *testing.T) {
	loop := scheduler.New()

	count := 0
	loop.QueueMicrotask(func() {
		count++
		loop.QueueMicrotask(func() { count++ })
	})
	loop.QueueMicrotask(nil)

	assert.Equal(t, 2, loop.DrainMicrotasks())
	assert.Equal(t, 2, count)
}

func TestRunWithPriority(t *testing.T) {
	loop := scheduler.New()
	assert.Equal(t, scheduler.NormalPriority, loop.CurrentPriorityLevel())

	loop.RunWithPriority(scheduler.ImmediatePriority, func() {
		assert.Equal(t, scheduler.ImmediatePriority, loop.CurrentPriorityLevel())
		loop.RunWithPriority(scheduler.IdlePriority, func() {
			assert.Equal(t, scheduler.IdlePriority, loop.CurrentPriorityLevel())
		})
		assert.Equal(t, scheduler.ImmediatePriority, loop.CurrentPriorityLevel())
	})
	assert.Equal(t, scheduler.NormalPriority, loop.CurrentPriorityLevel())
}

func TestTaskRunsAtItsPriority(t *testing.T) {
	loop := scheduler.New()

	var seen scheduler.Priority
	loop.ScheduleCallback(scheduler.UserBlockingPriority, once(func() {
		seen = loop.CurrentPriorityLevel()
	}))
	loop.RunUntilIdle()

	assert.Equal(t, scheduler.UserBlockingPriority, seen)
}

func TestShouldYieldUsesFrameInterval(t *testing.T) {
	clock := newManualClock()
	loop := scheduler.New(
		scheduler.WithClock(clock),
		scheduler.WithFrameInterval(5*time.Millisecond),
	)

	assert.False(t, loop.ShouldYield(), "no slice outside a task")

	var before, after bool
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() {
		before = loop.ShouldYield()
		clock.Advance(6 * time.Millisecond)
		after = loop.ShouldYield()
	}))
	loop.RunUntilIdle()

	assert.False(t, before)
	assert.True(t, after)
}

func TestShouldYieldOverride(t *testing.T) {
	yield := true
	loop := scheduler.New(scheduler.WithShouldYield(func() bool { return yield }))

	assert.True(t, loop.ShouldYield())
	yield = false
	assert.False(t, loop.ShouldYield())
}

func TestDidTimeout(t *testing.T) {
	clock := newManualClock()
	loop := scheduler.New(scheduler.WithClock(clock))

	var immediate, normal bool
	loop.ScheduleCallback(scheduler.ImmediatePriority, func(didTimeout bool) scheduler.Callback {
		immediate = didTimeout
		return nil
	})
	loop.ScheduleCallback(scheduler.NormalPriority, func(didTimeout bool) scheduler.Callback {
		normal = didTimeout
		return nil
	})
	loop.RunUntilIdle()

	assert.True(t, immediate, "immediate tasks are always expired")
	assert.False(t, normal)
}

func TestPanickingTaskDoesNotStopLoop(t *testing.T) {
	loop := scheduler.New()

	ran := false
	loop.ScheduleCallback(scheduler.ImmediatePriority, once(func() { panic("boom") }))
	loop.ScheduleCallback(scheduler.NormalPriority, once(func() { ran = true }))

	assert.Equal(t, 2, loop.RunUntilIdle())
	assert.True(t, ran)
}

func TestRun(t *testing.T) {
	loop := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	done := make(chan struct{})
	loop.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted task never ran")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunTwice(t *testing.T) {
	loop := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	loop.Submit(func() { close(started) })
	go func() { _ = loop.Run(ctx) }()
	<-started

	assert.ErrorIs(t, loop.Run(ctx), scheduler.ErrLoopAlreadyRunning)
}
