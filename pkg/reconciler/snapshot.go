package reconciler

import (
	"sort"

	"github.com/vango-dev/reconciler/pkg/element"
)

// FiberNode is a serialisable view of one committed fiber.
type FiberNode struct {
	Tag      string         `json:"tag"`
	Type     string         `json:"type"`
	Key      string         `json:"key,omitempty"`
	Text     string         `json:"text,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
	Handlers []string       `json:"handlers,omitempty"`
	Hooks    int            `json:"hooks,omitempty"`
	Children []*FiberNode   `json:"children,omitempty"`
}

// Snapshot returns the committed fiber tree of root. Must run on the
// goroutine driving the scheduler.
func (root *FiberRoot) Snapshot() *FiberNode {
	return snapshotFiber(root.current)
}

func snapshotFiber(f *Fiber) *FiberNode {
	n := &FiberNode{
		Tag:  f.Tag.String(),
		Type: typeName(f),
		Key:  f.Key,
	}
	switch f.Tag {
	case HostText:
		n.Text = textOf(f.MemoizedProps)
	case HostComponent:
		n.Props, n.Handlers = splitSnapshotProps(f.MemoizedProps)
	case FunctionComponent:
		for hk, _ := f.MemoizedState.(*hook); hk != nil; hk = hk.next {
			n.Hooks++
		}
	}
	for c := f.Child; c != nil; c = c.Sibling {
		n.Children = append(n.Children, snapshotFiber(c))
	}
	return n
}

func splitSnapshotProps(props element.Props) (map[string]any, []string) {
	var attrs map[string]any
	var handlers []string
	for k, v := range props {
		switch {
		case k == element.ChildrenProp:
		case element.IsEventProp(k):
			handlers = append(handlers, k)
		default:
			if attrs == nil {
				attrs = make(map[string]any)
			}
			attrs[k] = v
		}
	}
	sort.Strings(handlers)
	return attrs, handlers
}
