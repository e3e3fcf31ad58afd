package reconciler

import (
	"reflect"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host"
)

// completeWork creates or diffs the host node of wip once its children are
// complete, then bubbles the children's flags.
func (r *Reconciler) completeWork(wip *Fiber) {
	current := wip.Alternate
	newProps := wip.PendingProps

	switch wip.Tag {
	case HostComponent:
		if current != nil && wip.StateNode != nil {
			oldProps := current.MemoizedProps
			if updater, ok := r.host.(host.PropsUpdater); ok && (hasHandlers(oldProps) || hasHandlers(newProps)) {
				updater.UpdateProps(wip.StateNode, newProps)
			}
			if attributesChanged(oldProps, newProps) {
				wip.Flags |= Update
			}
		} else {
			instance := r.host.CreateInstance(wip.Type.(string), newProps)
			appendAllChildren(r.host, instance, wip)
			wip.StateNode = instance
		}
	case HostText:
		if current != nil && wip.StateNode != nil {
			if textOf(current.MemoizedProps) != textOf(newProps) {
				wip.Flags |= Update
			}
		} else {
			wip.StateNode = r.host.CreateTextInstance(textOf(newProps))
		}
	case HostRoot, FunctionComponent, Fragment:
	default:
		r.config.Logger.Warn("completeWork: unknown fiber tag", "tag", wip.Tag.String())
	}

	bubbleProperties(wip)
}

// appendAllChildren attaches the top-level host nodes below wip to parent,
// looking through component and fragment fibers.
func appendAllChildren(h host.Config, parent host.Instance, wip *Fiber) {
	node := wip.Child
	for node != nil {
		if node.Tag == HostComponent || node.Tag == HostText {
			h.AppendInitialChild(parent, node.StateNode)
		} else if node.Child != nil {
			node.Child.Return = node
			node = node.Child
			continue
		}

		if node == wip {
			return
		}
		for node.Sibling == nil {
			if node.Return == nil || node.Return == wip {
				return
			}
			node = node.Return
		}
		node.Sibling.Return = node.Return
		node = node.Sibling
	}
}

// bubbleProperties sets wip.SubtreeFlags to the union of its children's
// flags and subtree flags.
func bubbleProperties(wip *Fiber) {
	subtree := NoFlags
	for child := wip.Child; child != nil; child = child.Sibling {
		subtree |= child.SubtreeFlags | child.Flags
		child.Return = wip
	}
	wip.SubtreeFlags = subtree
}

// attributesChanged compares the props a host applies as attributes,
// ignoring children and event handlers.
func attributesChanged(prev, next element.Props) bool {
	for k, v := range next {
		if k == element.ChildrenProp || element.IsEventProp(k) {
			continue
		}
		old, ok := prev[k]
		if !ok || !propsEqual(old, v) {
			return true
		}
	}
	for k := range prev {
		if k == element.ChildrenProp || element.IsEventProp(k) {
			continue
		}
		if _, ok := next[k]; !ok {
			return true
		}
	}
	return false
}

func hasHandlers(props element.Props) bool {
	for k := range props {
		if element.IsEventProp(k) {
			return true
		}
	}
	return false
}

// propsEqual compares two prop values, with fast paths for common types.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}
