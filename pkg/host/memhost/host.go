package memhost

import (
	"fmt"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Op names a recorded host operation.
type Op string

const (
	OpCreate        Op = "create"
	OpCreateText    Op = "createText"
	OpAppendInitial Op = "appendInitial"
	OpAppend        Op = "append"
	OpInsert        Op = "insert"
	OpRemove        Op = "remove"
	OpUpdate        Op = "update"
	OpRebind        Op = "rebind"
)

// Mutation is one entry of the operation log. Node IDs are zero when not
// applicable.
type Mutation struct {
	Op     Op
	Node   uint64
	Parent uint64
	Before uint64
	Detail string
}

// String returns a compact description of the mutation.
func (m Mutation) String() string {
	switch m.Op {
	case OpInsert:
		return fmt.Sprintf("%s #%d into #%d before #%d", m.Op, m.Node, m.Parent, m.Before)
	case OpAppend, OpAppendInitial, OpRemove:
		return fmt.Sprintf("%s #%d parent #%d", m.Op, m.Node, m.Parent)
	default:
		if m.Detail != "" {
			return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Detail)
		}
		return fmt.Sprintf("%s #%d", m.Op, m.Node)
	}
}

// PriorityRunner runs a function under a scheduler priority.
type PriorityRunner interface {
	RunWithPriority(p scheduler.Priority, fn func())
}

// Host is an in-memory implementation of host.Config.
//
// # Thread Safety
//
// All tree access is guarded by an internal lock, so HTML, Snapshot and
// Log may be called from other goroutines while the reconciler commits.
type Host struct {
	mu      sync.RWMutex
	nextID  uint64
	log     []Mutation
	created int
	removed mapset.Set[uint64]

	// duplicateRemovals counts RemoveChild calls for already removed nodes.
	duplicateRemovals int

	microtask func(func())
	pending   []func()
	runner    PriorityRunner
	logger    *slog.Logger
}

var (
	_ host.Config       = (*Host)(nil)
	_ host.PropsUpdater = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithMicrotasks routes ScheduleMicrotask to fn, typically a scheduler's
// QueueMicrotask. Without it microtasks wait for FlushMicrotasks.
func WithMicrotasks(fn func(func())) Option {
	return func(h *Host) {
		h.microtask = fn
	}
}

// WithPriorityRunner sets the scheduler used to run event handlers under
// their event priority.
func WithPriorityRunner(r PriorityRunner) Option {
	return func(h *Host) {
		h.runner = r
	}
}

// WithLogger sets the logger for host diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		removed: mapset.NewThreadUnsafeSet[uint64](),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewContainer creates a root container node.
func (h *Host) NewContainer() *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newNode(ContainerNode)
}

func (h *Host) newNode(kind NodeKind) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Kind: kind}
}

// CreateInstance implements host.Config.
func (h *Host) CreateInstance(tag string, props element.Props) host.Instance {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.newNode(ElementNode)
	n.Tag = tag
	n.Attrs, n.handlers = splitProps(props)
	h.created++
	h.record(Mutation{Op: OpCreate, Node: n.ID, Detail: tag})
	return n
}

// CreateTextInstance implements host.Config.
func (h *Host) CreateTextInstance(text string) host.Instance {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.newNode(TextNode)
	n.Text = text
	h.created++
	h.record(Mutation{Op: OpCreateText, Node: n.ID, Detail: fmt.Sprintf("%q", text)})
	return n
}

// AppendInitialChild implements host.Config.
func (h *Host) AppendInitialChild(parent, child host.Instance) {
	p, c := h.mustNode(parent), h.mustNode(child)
	if p == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c.detach()
	c.Parent = p
	p.Children = append(p.Children, c)
	h.record(Mutation{Op: OpAppendInitial, Node: c.ID, Parent: p.ID})
}

// AppendChildToContainer implements host.Config.
func (h *Host) AppendChildToContainer(child host.Instance, container host.Container) {
	p, c := h.mustNode(container), h.mustNode(child)
	if p == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c.detach()
	c.Parent = p
	p.Children = append(p.Children, c)
	h.record(Mutation{Op: OpAppend, Node: c.ID, Parent: p.ID})
}

// InsertChildToContainer implements host.Config.
func (h *Host) InsertChildToContainer(child host.Instance, container host.Container, before host.Instance) {
	p, c, b := h.mustNode(container), h.mustNode(child), h.mustNode(before)
	if p == nil || c == nil || b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c.detach()
	i := p.indexOf(b)
	if i < 0 {
		h.logger.Warn("memhost: insert before a node that is not a child; appending",
			"node", c.ID, "parent", p.ID, "before", b.ID)
		i = len(p.Children)
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = c
	c.Parent = p
	h.record(Mutation{Op: OpInsert, Node: c.ID, Parent: p.ID, Before: b.ID})
}

// RemoveChild implements host.Config.
func (h *Host) RemoveChild(child host.Instance, container host.Container) {
	p, c := h.mustNode(container), h.mustNode(child)
	if p == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removed.Add(c.ID) {
		h.duplicateRemovals++
		h.logger.Error("memhost: node removed twice", "node", c.ID)
	}
	if c.Parent != p {
		h.logger.Warn("memhost: remove from a parent that does not own the node",
			"node", c.ID, "parent", p.ID)
		return
	}
	c.detach()
	h.record(Mutation{Op: OpRemove, Node: c.ID, Parent: p.ID})
}

// CommitUpdate implements host.Config.
func (h *Host) CommitUpdate(instance host.Instance, kind host.UpdateKind, oldProps, newProps element.Props) {
	n := h.mustNode(instance)
	if n == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	switch kind {
	case host.UpdateText:
		text, _ := newProps[host.TextProp].(string)
		n.Text = text
		h.record(Mutation{Op: OpUpdate, Node: n.ID, Detail: fmt.Sprintf("text %q", text)})
	case host.UpdateAttributes:
		n.Attrs, n.handlers = splitProps(newProps)
		h.record(Mutation{Op: OpUpdate, Node: n.ID, Detail: "attributes"})
	default:
		h.logger.Warn("memhost: unknown update kind", "node", n.ID, "kind", kind)
	}
}

// UpdateProps implements host.PropsUpdater by rebinding event handlers.
func (h *Host) UpdateProps(instance host.Instance, props element.Props) {
	n := h.mustNode(instance)
	if n == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	_, n.handlers = splitProps(props)
	h.record(Mutation{Op: OpRebind, Node: n.ID})
}

// ScheduleMicrotask implements host.Config.
func (h *Host) ScheduleMicrotask(fn func()) {
	if h.microtask != nil {
		h.microtask(fn)
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, fn)
	h.mu.Unlock()
}

// FlushMicrotasks runs microtasks queued without a WithMicrotasks target,
// including ones they queue. Returns the number run.
func (h *Host) FlushMicrotasks() int {
	ran := 0
	for {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.mu.Unlock()
			return ran
		}
		fn := h.pending[0]
		h.pending = h.pending[1:]
		h.mu.Unlock()

		fn()
		ran++
	}
}

// Log returns a copy of the operation log.
func (h *Host) Log() []Mutation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Mutation, len(h.log))
	copy(out, h.log)
	return out
}

// ResetLog clears the operation log.
func (h *Host) ResetLog() {
	h.mu.Lock()
	h.log = h.log[:0]
	h.mu.Unlock()
}

// Count returns how many logged operations have the given op.
func (h *Host) Count(op Op) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.log {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Stats summarises host activity.
type Stats struct {
	Created           int
	Removed           int
	DuplicateRemovals int
	Mutations         int
}

// Stats returns counters since the host was created. Mutations counts the
// current log.
func (h *Host) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Created:           h.created,
		Removed:           h.removed.Cardinality(),
		DuplicateRemovals: h.duplicateRemovals,
		Mutations:         len(h.log),
	}
}

func (h *Host) record(m Mutation) {
	h.log = append(h.log, m)
}

func (h *Host) mustNode(v any) *Node {
	n, ok := v.(*Node)
	if !ok || n == nil {
		h.logger.Error("memhost: not a memhost node", "value", fmt.Sprintf("%T", v))
		return nil
	}
	return n
}
