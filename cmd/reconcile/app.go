package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

type todo struct {
	ID    int
	Title string
	Done  bool
}

type todoOp uint8

const (
	todoAdd todoOp = iota
	todoToggle
	todoRemove
	todoReverse
)

type todoAction struct {
	op    todoOp
	id    int
	title string
}

func todoReducer(items []todo, a todoAction) []todo {
	next := make([]todo, 0, len(items)+1)
	switch a.op {
	case todoAdd:
		next = append(next, items...)
		next = append(next, todo{ID: a.id, Title: a.title})
	case todoToggle:
		for _, t := range items {
			if t.ID == a.id {
				t.Done = !t.Done
			}
			next = append(next, t)
		}
	case todoRemove:
		for _, t := range items {
			if t.ID != a.id {
				next = append(next, t)
			}
		}
	case todoReverse:
		for i := len(items) - 1; i >= 0; i-- {
			next = append(next, items[i])
		}
	default:
		return items
	}
	return next
}

var initialTodos = []todo{
	{ID: 1, Title: "write reconciler"},
	{ID: 2, Title: "write tests"},
	{ID: 3, Title: "ship"},
}

// todoItem renders one list row. Its toggle button is found by the id
// "toggle-<ID>".
var todoItem = &reconciler.Component{
	Name: "TodoItem",
	Render: func(h *reconciler.Hooks, props element.Props) any {
		t := props["todo"].(todo)
		dispatch := props["dispatch"].(reconciler.Dispatch[[]todo, todoAction])

		class := "todo"
		if t.Done {
			class = "todo done"
		}
		return element.Li(element.Class(class),
			element.Span(t.Title),
			element.Button(
				element.ID("toggle-"+strconv.Itoa(t.ID)),
				element.OnClick(func() { dispatch.Dispatch(todoAction{op: todoToggle, id: t.ID}) }),
				"toggle",
			),
			element.Button(
				element.ID("remove-"+strconv.Itoa(t.ID)),
				element.OnClick(func() { dispatch.Dispatch(todoAction{op: todoRemove, id: t.ID}) }),
				"remove",
			),
		)
	},
}

// demoApp is a counter next to a keyed todo list.
var demoApp = &reconciler.Component{
	Name: "App",
	Render: func(h *reconciler.Hooks, props element.Props) any {
		count, setCount := reconciler.UseState(h, 0)
		items, dispatch := reconciler.UseReducer(h, todoReducer, initialTodos)
		nextID := reconciler.UseRef(h, len(initialTodos)+1)

		remaining := reconciler.UseMemo(h, func() int {
			n := 0
			for _, t := range items {
				if !t.Done {
					n++
				}
			}
			return n
		}, reconciler.Deps(items))

		reconciler.UseEffect(h, func() func() {
			slog.Debug("count committed", "count", count)
			return nil
		}, reconciler.Deps(count))

		increment := reconciler.UseCallback(h, func() {
			setCount.Update(func(n int) int { return n + 1 })
		}, reconciler.Deps())

		return element.Div(element.ID("app"),
			element.H1("Todos ", element.Span(element.ID("remaining"), remaining), " left"),
			element.P(
				element.Button(element.ID("inc"), element.OnClick(increment), "clicked ", count),
			),
			element.P(
				element.Button(element.ID("add"), element.OnClick(func() {
					id := nextID.Current
					nextID.Current++
					dispatch.Dispatch(todoAction{op: todoAdd, id: id, title: fmt.Sprintf("item %d", id)})
				}), "add"),
				element.Button(element.ID("reverse"), element.OnClick(func() {
					dispatch.Dispatch(todoAction{op: todoReverse})
				}), "reverse"),
			),
			element.Ul(element.ID("todos"),
				element.Range(items, func(t todo, _ int) *element.Element {
					return element.New(todoItem,
						element.Key(t.ID),
						element.Prop("todo", t),
						element.Prop("dispatch", dispatch),
					)
				}),
			),
		)
	},
}

// session is one scheduler loop, in-memory host and reconciler with a
// single mounted root.
type session struct {
	loop      *scheduler.Loop
	host      *memhost.Host
	rec       *reconciler.Reconciler
	root      *reconciler.FiberRoot
	container *memhost.Node
}

func newSession(e *env, loopOpts []scheduler.Option, opts ...reconciler.Option) *session {
	logger := e.log.Logger
	loopOpts = append([]scheduler.Option{
		scheduler.WithFrameInterval(e.cfg.Scheduler.FrameInterval),
		scheduler.WithLogger(logger),
	}, loopOpts...)

	s := &session{loop: scheduler.New(loopOpts...)}
	s.host = memhost.New(
		memhost.WithMicrotasks(s.loop.QueueMicrotask),
		memhost.WithPriorityRunner(s.loop),
		memhost.WithLogger(logger),
	)
	opts = append([]reconciler.Option{
		reconciler.WithLogger(logger),
		reconciler.WithDebugMode(e.cfg.Reconciler.Debug),
		reconciler.WithTracerName(e.cfg.Reconciler.TracerName),
	}, opts...)
	s.rec = reconciler.New(s.host, s.loop, opts...)
	s.container = s.host.NewContainer()
	s.root = s.rec.CreateContainer(s.container)
	return s
}

// click dispatches a click on the node with the given id. The caller
// drives the loop.
func (s *session) click(id string) error {
	n := s.container.FindByID(id)
	if n == nil {
		return fmt.Errorf("no element with id %q", id)
	}
	s.host.Dispatch(n, "click", nil)
	return nil
}
