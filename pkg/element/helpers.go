package element

// If returns the element if condition is true, otherwise nil.
func If(condition bool, el *Element) *Element {
	if condition {
		return el
	}
	return nil
}

// IfElse returns ifTrue if condition is true, otherwise ifFalse.
func IfElse(condition bool, ifTrue, ifFalse *Element) *Element {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// Range maps items to elements, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) *Element) []*Element {
	result := make([]*Element, 0, len(items))
	for i, item := range items {
		if el := fn(item, i); el != nil {
			result = append(result, el)
		}
	}
	return result
}

// Repeat calls fn n times and collects the non-nil elements.
func Repeat(n int, fn func(i int) *Element) []*Element {
	result := make([]*Element, 0, n)
	for i := 0; i < n; i++ {
		if el := fn(i); el != nil {
			result = append(result, el)
		}
	}
	return result
}
