package reconciler

import (
	"math"
	"reflect"
)

// Deps builds a dependency list. Deps() is an empty, non-nil list: the
// effect or memo runs only once.
func Deps(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

// depsEqual reports whether two dependency lists of the same length hold
// identical values position by position.
func depsEqual(next, prev []any) bool {
	for i := range next {
		if !objectIs(next[i], prev[i]) {
			return false
		}
	}
	return true
}

// objectIs is identity equality for dependency values:
//   - NaN equals NaN, +0 and -0 differ
//   - maps, slices, pointers and channels compare by reference
//   - non-nil funcs never compare equal
//   - other comparable values compare with ==
func objectIs(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && floatIs(x, y)
	case float32:
		y, ok := b.(float32)
		return ok && floatIs(float64(x), float64(y))
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if va.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	if !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}

func floatIs(x, y float64) bool {
	if math.IsNaN(x) && math.IsNaN(y) {
		return true
	}
	return x == y && math.Signbit(x) == math.Signbit(y)
}
