package rtest

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Harness is one reconciler with a single root on an in-memory host.
type Harness struct {
	tb testing.TB

	Loop       *scheduler.Loop
	Host       *memhost.Host
	Reconciler *reconciler.Reconciler
	Root       *reconciler.FiberRoot
	Container  *memhost.Node

	mu      sync.Mutex
	errs    []reconciler.RenderError
	commits []reconciler.CommitInfo
}

// New creates a harness. Logs are discarded unless opts set a logger.
func New(tb testing.TB, opts ...reconciler.Option) *Harness {
	tb.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{tb: tb}
	h.Loop = scheduler.New(scheduler.WithLogger(logger))
	h.Host = memhost.New(
		memhost.WithMicrotasks(h.Loop.QueueMicrotask),
		memhost.WithPriorityRunner(h.Loop),
		memhost.WithLogger(logger),
	)
	opts = append([]reconciler.Option{
		reconciler.WithLogger(logger),
		reconciler.WithDebugMode(true),
		reconciler.WithOnRenderError(h.recordError),
		reconciler.WithOnCommit(h.recordCommit),
	}, opts...)
	h.Reconciler = reconciler.New(h.Host, h.Loop, opts...)
	h.Container = h.Host.NewContainer()
	h.Root = h.Reconciler.CreateContainer(h.Container)
	return h
}

func (h *Harness) recordError(err reconciler.RenderError) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *Harness) recordCommit(info reconciler.CommitInfo) {
	h.mu.Lock()
	h.commits = append(h.commits, info)
	h.mu.Unlock()
}

// Render replaces the root's children with el and flushes.
func (h *Harness) Render(el *element.Element) *Harness {
	h.Reconciler.UpdateContainer(el, h.Root)
	h.Flush()
	return h
}

// Flush runs the loop until no task or microtask is left. Returns the
// number of task invocations.
func (h *Harness) Flush() int {
	return h.Loop.RunUntilIdle()
}

// ByID returns the host node with the given id attribute, or nil.
func (h *Harness) ByID(id string) *memhost.Node {
	return h.Container.FindByID(id)
}

// Dispatch fires an event on the node with the given id and flushes. The
// test fails if no such node exists.
func (h *Harness) Dispatch(id, eventType string, data any) *Harness {
	h.tb.Helper()
	n := h.ByID(id)
	if n == nil {
		h.tb.Fatalf("no element with id %q in:\n%s", id, truncate(h.HTML(), 500))
		return h
	}
	h.Host.Dispatch(n, eventType, data)
	h.Flush()
	return h
}

// Click dispatches a click on the node with the given id and flushes.
func (h *Harness) Click(id string) *Harness {
	h.tb.Helper()
	return h.Dispatch(id, "click", nil)
}

// HTML returns the rendered host tree.
func (h *Harness) HTML() string {
	return h.Host.HTML(h.Container)
}

// Text returns the text content of the node with the given id.
func (h *Harness) Text(id string) string {
	return h.ByID(id).TextContent()
}

// RenderErrors returns the renders that failed so far.
func (h *Harness) RenderErrors() []reconciler.RenderError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]reconciler.RenderError(nil), h.errs...)
}

// Commits returns the commits made so far.
func (h *Harness) Commits() []reconciler.CommitInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]reconciler.CommitInfo(nil), h.commits...)
}

// ExpectText asserts the text content of the node with the given id.
func (h *Harness) ExpectText(id, want string) {
	h.tb.Helper()
	if h.ByID(id) == nil {
		h.tb.Errorf("no element with id %q in:\n%s", id, truncate(h.HTML(), 500))
		return
	}
	if got := h.Text(id); got != want {
		h.tb.Errorf("text of #%s = %q, want %q", id, got, want)
	}
}

// ExpectContains asserts that the rendered output contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.tb.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		h.tb.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the rendered output does not contain
// unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.tb.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		h.tb.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the rendered output contains a tag.
func (h *Harness) ExpectElement(tag string) {
	h.tb.Helper()
	found := h.Container.Find(func(n *memhost.Node) bool { return n.Tag == tag })
	if found == nil {
		h.tb.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(h.HTML(), 500))
	}
}

// ExpectAttribute asserts that some node carries attr with value.
func (h *Harness) ExpectAttribute(attr, value string) {
	h.tb.Helper()
	found := h.Container.Find(func(n *memhost.Node) bool {
		v, ok := n.Attrs[attr]
		return ok && v == value
	})
	if found == nil {
		h.tb.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(h.HTML(), 500))
	}
}

// ExpectNoRenderErrors asserts that no render has failed.
func (h *Harness) ExpectNoRenderErrors() {
	h.tb.Helper()
	for _, re := range h.RenderErrors() {
		h.tb.Errorf("render failed on lane %s: %v", re.Lane, re.Err)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
