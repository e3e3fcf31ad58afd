package reconciler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vango-dev/reconciler/pkg/element"
)

type effectLog struct {
	entries []string
}

func (l *effectLog) add(format string, args ...any) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *effectLog) take() []string {
	out := l.entries
	l.entries = nil
	return out
}

// watcher logs an effect that depends on its "dep" prop.
func watcher(log *effectLog, name string, deps func(props element.Props) []any) *Component {
	return &Component{Name: name, Render: func(h *Hooks, props element.Props) any {
		v := props["dep"]
		UseEffect(h, func() func() {
			log.add("create %s %v", name, v)
			return func() { log.add("destroy %s %v", name, v) }
		}, deps(props))
		return nil
	}}
}

func depProp(props element.Props) []any { return Deps(props["dep"]) }

func TestEffectRunsWhenDepsChange(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", depProp)

	h.render(element.New(w, element.Prop("dep", 1)))
	assert.Equal(t, []string{"create w 1"}, log.take())

	h.render(element.New(w, element.Prop("dep", 1)))
	assert.Empty(t, log.take())

	h.render(element.New(w, element.Prop("dep", 2)))
	assert.Equal(t, []string{"destroy w 1", "create w 2"}, log.take())

	h.render(nil)
	assert.Equal(t, []string{"destroy w 2"}, log.take())
}

func TestEffectWithoutDepsRunsEveryCommit(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", func(element.Props) []any { return nil })

	h.render(element.New(w, element.Prop("dep", 1)))
	h.render(element.New(w, element.Prop("dep", 1)))

	assert.Equal(t, []string{"create w 1", "destroy w 1", "create w 1"}, log.take())
}

func TestEffectWithEmptyDepsRunsOnce(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", func(element.Props) []any { return Deps() })

	h.render(element.New(w, element.Prop("dep", 1)))
	h.render(element.New(w, element.Prop("dep", 2)))
	h.render(nil)

	assert.Equal(t, []string{"create w 1", "destroy w 1"}, log.take())
}

func TestPassiveEffectOrder(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	always := func(element.Props) []any { return nil }
	a := watcher(log, "a", always)
	b := watcher(log, "b", always)
	gone := watcher(log, "gone", always)
	parent := &Component{Name: "Parent", Render: func(hk *Hooks, props element.Props) any {
		UseEffect(hk, func() func() {
			log.add("create parent")
			return func() { log.add("destroy parent") }
		}, nil)
		return props.Children()
	}}

	h.render(element.New(parent,
		element.New(a, element.Key("a")),
		element.New(gone, element.Key("gone")),
		element.New(b, element.Key("b")),
	))
	assert.Equal(t, []string{"create a <nil>", "create gone <nil>", "create b <nil>", "create parent"}, log.take())

	h.render(element.New(parent,
		element.New(a, element.Key("a")),
		element.New(b, element.Key("b")),
	))
	assert.Equal(t, []string{
		"destroy gone <nil>",
		"destroy a <nil>", "destroy b <nil>", "destroy parent",
		"create a <nil>", "create b <nil>", "create parent",
	}, log.take())
}

func TestEffectsWaitForPassiveFlush(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", depProp)

	h.r.FlushSync(func() {
		h.r.UpdateContainer(element.New(w, element.Prop("dep", 1)), h.root)
	})
	assert.Empty(t, log.entries, "effects must not run during commit")

	assert.True(t, h.r.FlushPassiveEffects(h.root))
	assert.Equal(t, []string{"create w 1"}, log.take())
	assert.False(t, h.r.FlushPassiveEffects(h.root))
}

func TestTwoCommitsShareOneFlush(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", depProp)

	for i := 0; i < 2; i++ {
		h.r.FlushSync(func() {
			h.r.UpdateContainer(element.New(w, element.Prop("dep", i)), h.root)
		})
	}
	assert.Empty(t, log.entries)
	tasks, _ := h.loop.Pending()
	assert.Equal(t, 1, tasks, "one passive flush task for both commits")

	h.loop.RunUntilIdle()
	assert.Equal(t, []string{"create w 0", "destroy w 0", "create w 1"}, log.take())
}

func TestUnmountBeforeFlushSkipsCreate(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	w := watcher(log, "w", depProp)

	h.r.FlushSync(func() {
		h.r.UpdateContainer(element.New(w, element.Prop("dep", 1)), h.root)
	})
	h.r.FlushSync(func() {
		h.r.UpdateContainer(nil, h.root)
	})
	h.loop.RunUntilIdle()

	assert.Empty(t, log.take())
}

func TestEffectPanicDoesNotStopOthers(t *testing.T) {
	h := newHarness(t)
	log := &effectLog{}
	bad := &Component{Name: "Bad", Render: func(hk *Hooks, _ element.Props) any {
		UseEffect(hk, func() func() { panic("boom") }, Deps())
		return nil
	}}
	good := watcher(log, "good", depProp)

	h.render(element.Fragment(element.New(bad), element.New(good, element.Prop("dep", 1))))

	assert.Equal(t, []string{"create good 1"}, log.take())
}

func TestEffectCanScheduleUpdate(t *testing.T) {
	h := newHarness(t)
	comp := &Component{Name: "Loader", Render: func(hk *Hooks, _ element.Props) any {
		status, set := UseState(hk, "loading")
		UseEffect(hk, func() func() {
			set.Set("ready")
			return nil
		}, Deps())
		return element.Span(status)
	}}

	h.render(element.New(comp))

	h.expectHTML(`<span>ready</span>`)
}
