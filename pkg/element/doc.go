// Package element provides the immutable element model consumed by the
// reconciler.
//
// An Element describes what should exist at one tree position: a host tag,
// a component or a fragment, an optional key and a set of props. Elements
// are plain values; the reconciler never mutates them.
//
// # Element API
//
// Elements are created with variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    Ul(Range(items, func(it Item, _ int) *Element {
//	        return Li(Key(it.ID), it.Label)
//	    })),
//	    OnClick(handler),
//	)
//
// Arguments may be attributes, event handlers, child elements, strings or
// numbers (text children), slices of children, or nil (ignored). Children are
// stored under the reserved "children" prop: a single child is stored as-is,
// several children as a []any.
//
// # Identity
//
// Two elements at the same position are considered the same node when both
// their Type and their Key are equal. Component types are pointers, so the
// comparison is by identity.
package element
