package reconciler

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/element"
)

// childKey identifies an old child in the array diff: its explicit key, or
// its position when it has none.
type childKey struct {
	key   string
	index int
}

func keyOf(key string, index int) childKey {
	if key != "" {
		return childKey{key: key, index: -1}
	}
	return childKey{index: index}
}

// childReconciler diffs one fiber's old children against new children.
// With trackEffects false (first mount of a subtree) it records no
// deletions and no placements below the subtree root.
type childReconciler struct {
	r            *Reconciler
	trackEffects bool
}

func (c childReconciler) deleteChild(returnFiber, child *Fiber) {
	if !c.trackEffects {
		return
	}
	returnFiber.Deletions = append(returnFiber.Deletions, child)
	returnFiber.Flags |= ChildDeletion
}

func (c childReconciler) deleteRemainingChildren(returnFiber, child *Fiber) {
	if !c.trackEffects {
		return
	}
	for ; child != nil; child = child.Sibling {
		c.deleteChild(returnFiber, child)
	}
}

func (c childReconciler) placeSingleChild(f *Fiber) *Fiber {
	if f != nil && c.trackEffects && f.Alternate == nil {
		f.Flags |= Placement
	}
	return f
}

// useFiber returns the work-in-progress twin of f as an only child.
func useFiber(f *Fiber, props element.Props) *Fiber {
	clone := createWorkInProgress(f, props)
	clone.Index = 0
	clone.Sibling = nil
	return clone
}

// reconcileChildFibers returns the first new child of returnFiber.
func (c childReconciler) reconcileChildFibers(returnFiber, currentFirstChild *Fiber, newChild any) *Fiber {
	if el, ok := newChild.(*element.Element); ok && el != nil && el.IsFragment() && !el.HasKey() {
		newChild = el.Props.Children()
	}

	switch v := newChild.(type) {
	case *element.Element:
		if v != nil {
			return c.placeSingleChild(c.reconcileSingleElement(returnFiber, currentFirstChild, v))
		}
	case string:
		return c.placeSingleChild(c.reconcileSingleTextNode(returnFiber, currentFirstChild, v))
	}
	if text, ok := numberText(newChild); ok {
		return c.placeSingleChild(c.reconcileSingleTextNode(returnFiber, currentFirstChild, text))
	}
	if list, ok := childList(newChild); ok {
		return c.reconcileChildrenArray(returnFiber, currentFirstChild, list)
	}

	if !isEmptyChild(newChild) {
		c.r.warnUnknownChild(returnFiber, newChild)
	}
	c.deleteRemainingChildren(returnFiber, currentFirstChild)
	return nil
}

func (c childReconciler) reconcileSingleElement(returnFiber, currentFirstChild *Fiber, el *element.Element) *Fiber {
	for cur := currentFirstChild; cur != nil; {
		if cur.Key == el.Key {
			if sameType(cur, el) {
				props := el.Props
				if el.IsFragment() {
					props = element.Props{element.ChildrenProp: el.Props.Children()}
				}
				existing := useFiber(cur, props)
				existing.Return = returnFiber
				c.deleteRemainingChildren(returnFiber, cur.Sibling)
				return existing
			}
			// Same key, different type: nothing below can match.
			c.deleteRemainingChildren(returnFiber, cur)
			break
		}
		c.deleteChild(returnFiber, cur)
		cur = cur.Sibling
	}

	f := c.r.createFiberFromElement(el)
	if f != nil {
		f.Return = returnFiber
	}
	return f
}

func (c childReconciler) reconcileSingleTextNode(returnFiber, currentFirstChild *Fiber, text string) *Fiber {
	for cur := currentFirstChild; cur != nil; cur = cur.Sibling {
		if cur.Tag == HostText {
			existing := useFiber(cur, textProps(text))
			existing.Return = returnFiber
			c.deleteRemainingChildren(returnFiber, cur.Sibling)
			return existing
		}
		c.deleteChild(returnFiber, cur)
	}

	f := createFiberFromText(text)
	f.Return = returnFiber
	return f
}

func (c childReconciler) reconcileChildrenArray(returnFiber, currentFirstChild *Fiber, newChildren []any) *Fiber {
	var firstNew, lastNew *Fiber
	lastPlacedIndex := 0
	reused := make(map[*Fiber]struct{})

	existing := make(map[childKey]*Fiber)
	for cur := currentFirstChild; cur != nil; cur = cur.Sibling {
		existing[keyOf(cur.Key, cur.Index)] = cur
	}

	var seen mapset.Set[string]
	if c.r.config.DebugMode {
		seen = mapset.NewThreadUnsafeSet[string]()
	}

	for i, child := range newChildren {
		if seen != nil {
			if el, ok := child.(*element.Element); ok && el.HasKey() && !seen.Add(el.Key) {
				c.r.config.Logger.Warn("duplicate key in child list",
					"key", el.Key,
					"parent", typeName(returnFiber),
				)
			}
		}

		newFiber := c.updateFromMap(returnFiber, existing, i, child)
		if newFiber == nil {
			continue
		}
		newFiber.Index = i
		newFiber.Return = returnFiber

		if lastNew == nil {
			firstNew = newFiber
		} else {
			lastNew.Sibling = newFiber
		}
		lastNew = newFiber
		if newFiber.Alternate != nil {
			reused[newFiber.Alternate] = struct{}{}
		}

		if !c.trackEffects {
			continue
		}
		if cur := newFiber.Alternate; cur != nil {
			if cur.Index < lastPlacedIndex {
				newFiber.Flags |= Placement
			} else {
				lastPlacedIndex = cur.Index
			}
		} else {
			newFiber.Flags |= Placement
		}
	}

	// Delete in old order so host removals are deterministic.
	for cur := currentFirstChild; cur != nil; cur = cur.Sibling {
		if _, ok := reused[cur]; !ok {
			c.deleteChild(returnFiber, cur)
		}
	}

	return firstNew
}

// updateFromMap returns the fiber for the child at index, reusing the old
// fiber with the same key when its type matches. Reused fibers are removed
// from existing.
func (c childReconciler) updateFromMap(returnFiber *Fiber, existing map[childKey]*Fiber, index int, child any) *Fiber {
	text, isText := child.(string)
	if !isText {
		text, isText = numberText(child)
	}
	if isText {
		k := keyOf("", index)
		if before := existing[k]; before != nil && before.Tag == HostText {
			delete(existing, k)
			return useFiber(before, textProps(text))
		}
		return createFiberFromText(text)
	}

	if el, ok := child.(*element.Element); ok && el != nil {
		k := keyOf(el.Key, index)
		before := existing[k]
		if el.IsFragment() {
			return c.updateFragment(before, el.Props.Children(), k, el.Key, existing)
		}
		if before != nil && sameType(before, el) {
			delete(existing, k)
			return useFiber(before, el.Props)
		}
		return c.r.createFiberFromElement(el)
	}

	if list, ok := childList(child); ok {
		k := keyOf("", index)
		return c.updateFragment(existing[k], list, k, "", existing)
	}

	if !isEmptyChild(child) {
		c.r.warnUnknownChild(returnFiber, child)
	}
	return nil
}

func (c childReconciler) updateFragment(before *Fiber, children any, k childKey, key string, existing map[childKey]*Fiber) *Fiber {
	if before == nil || before.Tag != Fragment {
		return createFiberFromFragment(children, key)
	}
	delete(existing, k)
	return useFiber(before, element.Props{element.ChildrenProp: children})
}

// childList converts the slice forms a component may return into []any.
func childList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []*element.Element:
		out := make([]any, len(list))
		for i, el := range list {
			if el != nil {
				out[i] = el
			}
		}
		return out, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// numberText renders numeric children as text.
func numberText(v any) (string, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// isEmptyChild reports whether v renders nothing without being an error.
func isEmptyChild(v any) bool {
	switch x := v.(type) {
	case nil, bool:
		return true
	case *element.Element:
		return x == nil
	}
	return false
}

func (r *Reconciler) warnUnknownChild(returnFiber *Fiber, child any) {
	err := errors.New(errors.CodeUnknownElementKind).WithDetailf("child of type %T", child)
	r.config.Logger.Warn(err.Message,
		"code", err.Code,
		"parent", typeName(returnFiber),
		"type", fmt.Sprintf("%T", child),
	)
}

func (r *Reconciler) warnUnknownElement(el *element.Element) {
	err := errors.New(errors.CodeUnknownElementKind).WithDetailf("element type %T", el.Type)
	r.config.Logger.Warn(err.Message,
		"code", err.Code,
		"type", fmt.Sprintf("%T", el.Type),
	)
}
