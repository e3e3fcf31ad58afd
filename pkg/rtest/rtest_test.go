package rtest_test

import (
	"testing"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/rtest"
)

var counter = &reconciler.Component{
	Name: "Counter",
	Render: func(h *reconciler.Hooks, props element.Props) any {
		n, setN := reconciler.UseState(h, 0)
		return element.Div(element.Class("counter"),
			element.Span(element.ID("count"), n),
			element.Button(element.ID("inc"), element.OnClick(func() {
				setN.Update(func(v int) int { return v + 1 })
			}), "+"),
		)
	},
}

func TestRenderAndClick(t *testing.T) {
	h := rtest.New(t)
	h.Render(element.New(counter))

	h.ExpectText("count", "0")
	h.ExpectElement("button")
	h.ExpectAttribute("class", "counter")

	h.Click("inc").Click("inc")
	h.ExpectText("count", "2")
	h.ExpectContains(`<span id="count">2</span>`)
	h.ExpectNotContains("undefined")
	h.ExpectNoRenderErrors()

	if got := len(h.Commits()); got != 3 {
		t.Errorf("commits = %d, want 3", got)
	}
}

func TestRenderErrorsCollected(t *testing.T) {
	broken := &reconciler.Component{
		Name: "Broken",
		Render: func(h *reconciler.Hooks, props element.Props) any {
			panic("boom")
		},
	}

	h := rtest.New(t)
	h.Render(element.P("ok"))
	h.Render(element.New(broken))

	errs := h.RenderErrors()
	if len(errs) != 1 {
		t.Fatalf("render errors = %d, want 1", len(errs))
	}
	if errs[0].Err == nil {
		t.Error("render error carries no error")
	}
	h.ExpectContains("<p>ok</p>")
}

func TestByIDMissing(t *testing.T) {
	h := rtest.New(t)
	h.Render(element.Div())
	if h.ByID("nope") != nil {
		t.Error("ByID found a node that does not exist")
	}
}
