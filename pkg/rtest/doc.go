// Package rtest provides testing helpers for components rendered by the
// reconciler.
//
// A Harness mounts elements on an in-memory host and drives a scheduler
// loop by hand, so every call returns with rendering, commit and passive
// effects finished.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := rtest.New(t)
//	    h.Render(element.New(Counter))
//	    h.Click("inc")
//	    h.ExpectText("count", "1")
//	}
//
// # Render Assertions
//
// Assert on the host tree rendered as HTML:
//
//	h.ExpectContains("Welcome")
//	h.ExpectNotContains("Error")
//	h.ExpectElement("button")
//	h.ExpectAttribute("class", "btn-primary")
//
// Render panics are collected instead of only being logged; assert on them
// with ExpectNoRenderErrors or read them with RenderErrors.
package rtest
