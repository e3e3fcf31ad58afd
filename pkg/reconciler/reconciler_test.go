package reconciler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// harness wires a reconciler to an in-memory host and a manually driven
// scheduler loop.
type harness struct {
	t         testing.TB
	loop      *scheduler.Loop
	host      *memhost.Host
	r         *Reconciler
	root      *FiberRoot
	container *memhost.Node
	yield     atomic.Bool
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t testing.TB, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t}
	h.loop = scheduler.New(
		scheduler.WithShouldYield(h.yield.Load),
		scheduler.WithLogger(discardLogger()),
	)
	h.host = memhost.New(
		memhost.WithMicrotasks(h.loop.QueueMicrotask),
		memhost.WithPriorityRunner(h.loop),
		memhost.WithLogger(discardLogger()),
	)
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	h.r = New(h.host, h.loop, opts...)
	h.container = h.host.NewContainer()
	h.root = h.r.CreateContainer(h.container)
	return h
}

// render updates the root and runs the loop until idle.
func (h *harness) render(el *element.Element) {
	h.t.Helper()
	h.r.UpdateContainer(el, h.root)
	h.loop.RunUntilIdle()
}

func (h *harness) html() string {
	return h.host.HTML(h.container)
}

func (h *harness) expectHTML(want string) {
	h.t.Helper()
	if got := h.html(); got != want {
		h.t.Errorf("HTML = %q, want %q", got, want)
	}
}

func keyedList(keys ...string) *element.Element {
	items := make([]*element.Element, len(keys))
	for i, k := range keys {
		items[i] = element.Li(element.Key(k), k)
	}
	return element.Ul(items)
}

// liByText returns the li whose text is s.
func liByText(container *memhost.Node, s string) *memhost.Node {
	return container.Find(func(n *memhost.Node) bool {
		return n.Tag == "li" && n.TextContent() == s
	})
}

func TestMountHostTree(t *testing.T) {
	h := newHarness(t)

	h.render(element.Div(element.ID("app"),
		element.Span("hi"),
		"text",
		element.Input(element.Value("v"), element.Disabled(true)),
	))

	h.expectHTML(`<div id="app"><span>hi</span>text<input disabled value="v"></div>`)
	if got := h.root.PendingLanes(); got != lane.NoLanes {
		t.Errorf("PendingLanes = %s, want none", got)
	}
	if h.root.Current().Child == nil {
		t.Fatal("current tree has no child")
	}
}

func TestSyncRenderOfNumberChild(t *testing.T) {
	h := newHarness(t)

	h.r.FlushSync(func() {
		h.r.UpdateContainer(element.Host("x", 100), h.root)
	})

	// No loop turn was needed.
	h.expectHTML(`<x>100</x>`)
}

func TestUnchangedTreeHasNoFlags(t *testing.T) {
	h := newHarness(t)
	tree := func() *element.Element {
		return element.Div(element.Class("a"),
			element.Span("one"),
			element.Button(element.OnClick(func() {}), "two"),
			element.Fragment(element.P("three")),
		)
	}
	h.render(tree())
	h.host.ResetLog()

	h.r.UpdateContainer(tree(), h.root)
	status, err := h.r.renderRoot(h.root, lane.DefaultLane, false)
	if status != rootCompleted || err != nil {
		t.Fatalf("renderRoot = %s, %v", status, err)
	}

	var walk func(f *Fiber)
	walk = func(f *Fiber) {
		if f.Flags != NoFlags || f.SubtreeFlags != NoFlags {
			t.Errorf("%s: flags %s subtree %s, want none", typeName(f), f.Flags, f.SubtreeFlags)
		}
		for c := f.Child; c != nil; c = c.Sibling {
			walk(c)
		}
	}
	walk(h.root.Current().Alternate)

	h.loop.RunUntilIdle()
	for _, m := range h.host.Log() {
		if m.Op != memhost.OpRebind {
			t.Errorf("unexpected host mutation %s", m)
		}
	}
	h.expectHTML(`<div class="a"><span>one</span><button>two</button><p>three</p></div>`)
}

func TestKeyedReorderMovesWithoutRecreating(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("A", "B", "C"))

	ids := map[string]uint64{}
	for _, k := range []string{"A", "B", "C"} {
		ids[k] = liByText(h.container, k).ID
	}
	created := h.host.Stats().Created
	h.host.ResetLog()

	h.render(keyedList("C", "A", "B"))

	h.expectHTML(`<ul><li>C</li><li>A</li><li>B</li></ul>`)
	if got := h.host.Stats().Created; got != created {
		t.Errorf("Created = %d, want %d", got, created)
	}
	for k, id := range ids {
		if got := liByText(h.container, k).ID; got != id {
			t.Errorf("li %s: id %d, want %d", k, got, id)
		}
	}
	if got := h.host.Count(memhost.OpRemove); got != 0 {
		t.Errorf("removes = %d, want 0", got)
	}
	if got := h.host.Count(memhost.OpAppend) + h.host.Count(memhost.OpInsert); got != 2 {
		t.Errorf("moves = %d, want 2", got)
	}
}

func TestKeyedInsertInMiddle(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("A", "C"))
	h.host.ResetLog()

	h.render(keyedList("A", "B", "C"))

	h.expectHTML(`<ul><li>A</li><li>B</li><li>C</li></ul>`)
	if got := h.host.Count(memhost.OpInsert); got != 1 {
		t.Errorf("inserts = %d, want 1", got)
	}
	if got := h.host.Count(memhost.OpCreate); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
}

func TestDeleteRemovesOnce(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("A", "B"))
	h.host.ResetLog()

	h.render(keyedList("A"))

	h.expectHTML(`<ul><li>A</li></ul>`)
	if got := h.host.Count(memhost.OpRemove); got != 1 {
		t.Errorf("removes = %d, want 1", got)
	}
	if got := h.host.Stats().DuplicateRemovals; got != 0 {
		t.Errorf("duplicate removals = %d", got)
	}
}

func TestDeleteComponentRemovesTopLevelHostNodes(t *testing.T) {
	h := newHarness(t)
	Wide := &Component{Name: "Wide", Render: func(_ *Hooks, _ element.Props) any {
		return element.Fragment(
			element.Span(element.Em("a")),
			element.Fragment(element.Strong("b")),
			"c",
		)
	}}

	h.render(element.Div(element.New(Wide, element.Key("w")), element.P(element.Key("k"), "keep")))
	h.expectHTML(`<div><span><em>a</em></span><strong>b</strong>c<p>keep</p></div>`)
	h.host.ResetLog()

	h.render(element.Div(element.P(element.Key("k"), "keep")))

	h.expectHTML(`<div><p>keep</p></div>`)
	if got := h.host.Count(memhost.OpRemove); got != 3 {
		t.Errorf("removes = %d, want 3 (span, strong, text)", got)
	}
	if got := h.host.Stats().DuplicateRemovals; got != 0 {
		t.Errorf("duplicate removals = %d", got)
	}
}

func TestTypeChangeReplaces(t *testing.T) {
	h := newHarness(t)
	h.render(element.Div(element.Span("x")))
	h.host.ResetLog()

	h.render(element.Div(element.P("x")))

	h.expectHTML(`<div><p>x</p></div>`)
	if got := h.host.Count(memhost.OpRemove); got != 1 {
		t.Errorf("removes = %d, want 1", got)
	}
	if got := h.host.Count(memhost.OpCreate); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
}

func TestTextUpdateInPlace(t *testing.T) {
	h := newHarness(t)
	h.render(element.Span("a"))
	h.host.ResetLog()

	h.render(element.Span("b"))

	h.expectHTML(`<span>b</span>`)
	if got := h.host.Count(memhost.OpUpdate); got != 1 {
		t.Errorf("updates = %d, want 1", got)
	}
	if got := h.host.Count(memhost.OpCreateText); got != 0 {
		t.Errorf("text creates = %d, want 0", got)
	}
}

func TestAttributeUpdate(t *testing.T) {
	h := newHarness(t)
	h.render(element.Div(element.Class("a"), element.ID("x")))
	h.render(element.Div(element.Class("b")))

	h.expectHTML(`<div class="b"></div>`)
}

func TestUnmountRoot(t *testing.T) {
	h := newHarness(t)
	h.render(element.Div(element.Span("x")))

	h.render(nil)

	h.expectHTML(``)
	if h.root.Current().Child != nil {
		t.Error("root still has children")
	}
}

func TestPlacementBeforeStableSiblingInsideFragment(t *testing.T) {
	h := newHarness(t)
	h.render(element.Div(
		element.Fragment(element.Key("f"), element.Span("1")),
		element.P("tail"),
	))

	h.render(element.Div(
		element.Fragment(element.Key("f"), element.Span("1"), element.Span("2")),
		element.P("tail"),
	))

	h.expectHTML(`<div><span>1</span><span>2</span><p>tail</p></div>`)
}

func TestCommitInfo(t *testing.T) {
	var infos []CommitInfo
	h := newHarness(t, WithOnCommit(func(info CommitInfo) {
		infos = append(infos, info)
	}))

	h.render(keyedList("A", "B"))
	h.render(keyedList("B"))

	if len(infos) != 2 {
		t.Fatalf("commits = %d, want 2", len(infos))
	}
	if infos[0].Lane != lane.DefaultLane {
		t.Errorf("lane = %s, want Default", infos[0].Lane)
	}
	if infos[0].Fibers == 0 || infos[0].Mutations != 1 {
		t.Errorf("first commit = %+v", infos[0])
	}
	if infos[1].Deletions != 1 {
		t.Errorf("deletions = %d, want 1", infos[1].Deletions)
	}
}
