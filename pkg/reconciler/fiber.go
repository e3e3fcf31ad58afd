package reconciler

import (
	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host"
)

// Component is a function component. Components are compared by pointer, so
// declare each one once, at package level.
//
//	var Counter = &reconciler.Component{
//	    Name: "Counter",
//	    Render: func(h *reconciler.Hooks, props element.Props) any {
//	        n, set := reconciler.UseState(h, 0)
//	        return element.Button(element.OnClick(func() { set.Update(inc) }), n)
//	    },
//	}
type Component struct {
	// Name is used in logs and devtools snapshots.
	Name string

	// Render returns the component's children: an *element.Element, a
	// string or number, a slice of these, or nil.
	Render func(h *Hooks, props element.Props) any
}

// String returns the component name.
func (c *Component) String() string {
	if c == nil || c.Name == "" {
		return "Anonymous"
	}
	return c.Name
}

// Fiber is the unit of work for one tree position. Each position has at
// most two fibers, the committed one and the one being built, linked through
// Alternate.
type Fiber struct {
	Tag       WorkTag
	Key       string
	Type      any
	StateNode any // host.Instance, or *FiberRoot for HostRoot

	Return  *Fiber
	Child   *Fiber
	Sibling *Fiber
	Index   int

	PendingProps  element.Props
	MemoizedProps element.Props

	// MemoizedState is the hook list head for function components and the
	// rendered element for the host root.
	MemoizedState any

	Alternate *Fiber

	Flags        Flags
	SubtreeFlags Flags
	Deletions    []*Fiber

	// rootQueue holds pending root updates (HostRoot only). It is shared by
	// both fibers of the root.
	rootQueue *updateQueue

	// baseState and baseQueue carry root updates skipped by an earlier
	// render (HostRoot only).
	baseState any
	baseQueue *update

	// lastEffect is the tail of the circular effect list built by the last
	// render (FunctionComponent only).
	lastEffect *effect
}

func newFiber(tag WorkTag, props element.Props, key string) *Fiber {
	return &Fiber{
		Tag:          tag,
		Key:          key,
		PendingProps: props,
	}
}

// createWorkInProgress returns the alternate of current prepared to render
// with pendingProps, allocating it on first use.
func createWorkInProgress(current *Fiber, pendingProps element.Props) *Fiber {
	wip := current.Alternate
	if wip == nil {
		wip = newFiber(current.Tag, pendingProps, current.Key)
		wip.StateNode = current.StateNode
		wip.Alternate = current
		current.Alternate = wip
	} else {
		wip.PendingProps = pendingProps
		wip.Flags = NoFlags
		wip.SubtreeFlags = NoFlags
		wip.Deletions = nil
	}
	wip.Type = current.Type
	wip.rootQueue = current.rootQueue
	wip.baseState = current.baseState
	wip.baseQueue = current.baseQueue
	wip.lastEffect = current.lastEffect
	wip.Child = current.Child
	wip.MemoizedProps = current.MemoizedProps
	wip.MemoizedState = current.MemoizedState
	wip.Index = current.Index
	wip.Sibling = current.Sibling
	return wip
}

// createFiberFromElement creates a mount fiber for el, or returns nil for an
// element whose type the reconciler does not know.
func (r *Reconciler) createFiberFromElement(el *element.Element) *Fiber {
	if el.IsFragment() {
		return createFiberFromFragment(el.Props.Children(), el.Key)
	}
	var f *Fiber
	switch typ := el.Type.(type) {
	case string:
		f = newFiber(HostComponent, el.Props, el.Key)
	case *Component:
		if typ == nil || typ.Render == nil {
			r.warnUnknownElement(el)
			return nil
		}
		f = newFiber(FunctionComponent, el.Props, el.Key)
	default:
		r.warnUnknownElement(el)
		return nil
	}
	f.Type = el.Type
	return f
}

func createFiberFromFragment(children any, key string) *Fiber {
	f := newFiber(Fragment, element.Props{element.ChildrenProp: children}, key)
	f.Type = element.FragmentType
	return f
}

func createFiberFromText(text string) *Fiber {
	return newFiber(HostText, textProps(text), "")
}

func textProps(text string) element.Props {
	return element.Props{host.TextProp: text}
}

func textOf(props element.Props) string {
	s, _ := props[host.TextProp].(string)
	return s
}

// sameType reports whether el can reuse fiber f.
func sameType(f *Fiber, el *element.Element) bool {
	if el.IsFragment() {
		return f.Tag == Fragment
	}
	switch typ := el.Type.(type) {
	case string:
		tag, ok := f.Type.(string)
		return f.Tag == HostComponent && ok && tag == typ
	case *Component:
		c, ok := f.Type.(*Component)
		return f.Tag == FunctionComponent && ok && c == typ
	default:
		return false
	}
}

// detachFiber severs a deleted fiber, and its alternate, from the tree.
func detachFiber(f *Fiber) {
	if alt := f.Alternate; alt != nil {
		alt.Return = nil
		alt.Child = nil
		alt.Alternate = nil
		alt.Deletions = nil
	}
	f.Return = nil
	f.Child = nil
	f.Alternate = nil
	f.Deletions = nil
}

// typeName returns a printable name for a fiber type.
func typeName(f *Fiber) string {
	switch t := f.Type.(type) {
	case string:
		return t
	case *Component:
		return t.String()
	}
	switch f.Tag {
	case HostRoot:
		return "#root"
	case HostText:
		return "#text"
	case Fragment:
		return "#fragment"
	}
	return "?"
}
