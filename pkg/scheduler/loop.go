package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopAlreadyRunning is returned when Run is called on a loop that is already running.
var ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")

// maxMicrotaskBacklog is the queue length above which a drain logs a warning.
const maxMicrotaskBacklog = 10000

// Scheduler is the contract the reconciler drives: priority callbacks with
// cancellation, a cooperative yield check and the ambient priority.
type Scheduler interface {
	ScheduleCallback(p Priority, cb Callback) *Task
	CancelCallback(t *Task)
	ShouldYield() bool
	CurrentPriorityLevel() Priority
	RunWithPriority(p Priority, fn func())
}

// Loop is the cooperative scheduler implementation.
//
// # Thread Safety
//
// The task heap and the microtask queue are guarded by mu. Callbacks run
// without holding mu, on the goroutine that drives the loop.
type Loop struct {
	config Config

	mu         sync.Mutex
	tasks      taskHeap
	microtasks []func()
	nextID     uint64

	// currentPriority is the ambient priority observed by CurrentPriorityLevel.
	currentPriority atomic.Int32

	// sliceStart is the start of the current time slice in UnixNano.
	sliceStart atomic.Int64

	running atomic.Bool

	// wake has capacity 1; a pending value means work arrived since the
	// driver last looked.
	wake chan struct{}
}

// New creates a new Loop.
func New(opts ...Option) *Loop {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	l := &Loop{
		config:     config,
		microtasks: make([]func(), 0, 64),
		wake:       make(chan struct{}, 1),
	}
	l.currentPriority.Store(int32(NormalPriority))
	return l
}

// Config returns a copy of the loop configuration.
func (l *Loop) Config() Config {
	return l.config
}

// ScheduleCallback queues cb at priority p and returns its handle.
func (l *Loop) ScheduleCallback(p Priority, cb Callback) *Task {
	if p == NoPriority {
		p = NormalPriority
	}
	now := l.config.Clock.Now()

	l.mu.Lock()
	l.nextID++
	t := &Task{
		id:             l.nextID,
		callback:       cb,
		priority:       p,
		startTime:      now,
		expirationTime: now.Add(p.timeout()),
	}
	heap.Push(&l.tasks, t)
	l.mu.Unlock()

	l.signal()
	return t
}

// CancelCallback cancels a task. A cancelled task never runs again, including
// any continuation it returns from an in-flight invocation.
func (l *Loop) CancelCallback(t *Task) {
	if t == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t.canceled = true
	t.callback = nil
	if t.index >= 0 && t.index < len(l.tasks) && l.tasks[t.index] == t {
		heap.Remove(&l.tasks, t.index)
	}
}

// ShouldYield reports whether the current time slice is spent.
func (l *Loop) ShouldYield() bool {
	if l.config.ShouldYield != nil {
		return l.config.ShouldYield()
	}
	start := l.sliceStart.Load()
	if start == 0 {
		return false
	}
	elapsed := l.config.Clock.Now().UnixNano() - start
	return time.Duration(elapsed) >= l.config.FrameInterval
}

// CurrentPriorityLevel returns the ambient priority.
func (l *Loop) CurrentPriorityLevel() Priority {
	return Priority(l.currentPriority.Load())
}

// RunWithPriority runs fn with the ambient priority set to p.
func (l *Loop) RunWithPriority(p Priority, fn func()) {
	if p == NoPriority {
		p = NormalPriority
	}
	prev := l.currentPriority.Swap(int32(p))
	defer l.currentPriority.Store(prev)
	fn()
}

// QueueMicrotask defers fn to the soonest possible future turn.
func (l *Loop) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Submit schedules fn as a Normal priority task. Safe from any goroutine.
func (l *Loop) Submit(fn func()) *Task {
	return l.ScheduleCallback(NormalPriority, func(bool) Callback {
		fn()
		return nil
	})
}

// Pending returns the number of queued tasks and microtasks.
func (l *Loop) Pending() (tasks, microtasks int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks), len(l.microtasks)
}

// DrainMicrotasks runs queued microtasks until the queue is empty.
// Returns the number of microtasks run.
func (l *Loop) DrainMicrotasks() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			if cap(l.microtasks) > 1024 {
				l.microtasks = make([]func(), 0, 64)
			}
			l.mu.Unlock()
			return ran
		}
		if len(l.microtasks) > maxMicrotaskBacklog {
			l.config.Logger.Warn("microtask backlog", "length", len(l.microtasks))
		}
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		l.safeExecute("microtask", func() { fn() })
		ran++
	}
}

// RunOnce drains microtasks, then runs one invocation of the most urgent
// task, then drains microtasks again. Reports whether a task ran.
func (l *Loop) RunOnce() bool {
	l.DrainMicrotasks()

	l.mu.Lock()
	if len(l.tasks) == 0 {
		l.mu.Unlock()
		return false
	}
	t := l.tasks[0]
	cb := t.callback
	l.mu.Unlock()

	now := l.config.Clock.Now()
	didTimeout := !t.expirationTime.After(now)

	l.sliceStart.Store(now.UnixNano())
	var next Callback
	l.RunWithPriority(t.priority, func() {
		l.safeExecute("task", func() { next = cb(didTimeout) })
	})
	l.sliceStart.Store(0)

	l.mu.Lock()
	if next != nil && !t.canceled {
		t.callback = next
	} else if t.index >= 0 && t.index < len(l.tasks) && l.tasks[t.index] == t {
		heap.Remove(&l.tasks, t.index)
	}
	l.mu.Unlock()

	l.DrainMicrotasks()
	return true
}

// RunUntilIdle runs tasks and microtasks until both queues are empty.
// Returns the number of task invocations.
func (l *Loop) RunUntilIdle() int {
	n := 0
	for l.RunOnce() {
		n++
	}
	return n
}

// Run drives the loop until ctx is done. Work scheduled from any goroutine
// wakes it.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		l.RunUntilIdle()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// signal wakes a blocked Run without blocking the caller.
func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute runs fn and recovers a panic so one faulty callback cannot
// stop the loop.
func (l *Loop) safeExecute(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.config.Logger.Error("scheduler callback panicked",
				"kind", kind,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	fn()
}
