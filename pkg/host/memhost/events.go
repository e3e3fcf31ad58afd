package memhost

import (
	"strings"

	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Event is passed to handlers that accept one.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Data          any

	stopped bool
}

// StopPropagation prevents handlers on ancestors from running.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// EventPriority maps an event type to the scheduler priority its handlers
// run under.
func EventPriority(eventType string) scheduler.Priority {
	switch strings.ToLower(eventType) {
	case "click", "keydown", "keyup", "input", "change", "submit", "focus", "blur":
		return scheduler.ImmediatePriority
	case "scroll", "mousemove", "pointermove", "drag", "wheel":
		return scheduler.UserBlockingPriority
	default:
		return scheduler.NormalPriority
	}
}

// Dispatch delivers an event of the given type to target and bubbles it up
// to the container. Supported handler signatures are func() and
// func(*Event). Returns the number of handlers invoked.
func (h *Host) Dispatch(target *Node, eventType string, data any) int {
	if target == nil {
		return 0
	}
	prop := "on" + strings.ToLower(eventType)

	// Collect the path first so handlers run without the lock held.
	type hop struct {
		node    *Node
		handler any
	}
	var path []hop
	h.mu.RLock()
	for n := target; n != nil; n = n.Parent {
		if fn := n.handlers[prop]; fn != nil {
			path = append(path, hop{node: n, handler: fn})
		}
	}
	h.mu.RUnlock()

	ev := &Event{Type: strings.ToLower(eventType), Target: target, Data: data}
	invoked := 0
	run := func() {
		for _, p := range path {
			ev.CurrentTarget = p.node
			switch fn := p.handler.(type) {
			case func():
				fn()
			case func(*Event):
				fn(ev)
			default:
				h.logger.Warn("memhost: unsupported handler type", "event", ev.Type, "node", p.node.ID)
				continue
			}
			invoked++
			if ev.stopped {
				return
			}
		}
	}

	if h.runner != nil {
		h.runner.RunWithPriority(EventPriority(eventType), run)
	} else {
		run()
	}
	return invoked
}
