// Package memhost is an in-memory host for the reconciler.
//
// It keeps a plain node tree, records every live mutation in a log, and can
// render the tree as HTML or as a JSON snapshot. It is used by the tests,
// the CLI demo and the devtools server.
//
// Event dispatch mirrors a browser: Dispatch walks from the target node up
// to the container, invoking "on<type>" handlers, and runs them under the
// scheduler priority associated with the event type so that state updates
// raised by handlers get the matching lane.
package memhost
