// Package errors provides structured errors for the reconciler.
//
// Every error carries a registered code (e.g. "R101") that maps to a short
// message, a longer explanation and a category. Usage errors raised while a
// component renders are panicked as *Error values; the work loop recovers
// them and reports them like any other render failure.
//
// # Error Categories
//
//   - usage: hooks called outside a render or in a different order
//   - render: component panics and unknown structural input
//   - invariant: internal bookkeeping that should never be observed
//   - config: invalid configuration files or values
//
// # Usage
//
//	err := errors.New("R103").
//	    WithCaller(1).
//	    WithDetail("deps had 2 entries, now 3")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R103: Effect dependency list changed length
//	//
//	//   app/counter.go:42
//	//
//	//   deps had 2 entries, now 3
package errors
