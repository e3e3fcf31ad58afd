package memhost

import (
	"sort"

	"github.com/vango-dev/reconciler/pkg/element"
)

// NodeKind identifies the kind of a Node.
type NodeKind uint8

const (
	ContainerNode NodeKind = iota // root container
	ElementNode                   // host tag
	TextNode                      // text content
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case ContainerNode:
		return "container"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "unknown"
	}
}

// Node is one node of the in-memory tree.
type Node struct {
	ID       uint64
	Kind     NodeKind
	Tag      string
	Text     string
	Attrs    map[string]any
	Parent   *Node
	Children []*Node

	handlers map[string]any
}

// Handler returns the handler bound for a prop name such as "onclick".
func (n *Node) Handler(prop string) any {
	if n == nil {
		return nil
	}
	return n.handlers[prop]
}

// indexOf returns the position of child among n's children, or -1.
func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// detach removes n from its parent, if any.
func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		copy(p.Children[i:], p.Children[i+1:])
		p.Children[len(p.Children)-1] = nil
		p.Children = p.Children[:len(p.Children)-1]
	}
	n.Parent = nil
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == TextNode {
		return n.Text
	}
	var out []byte
	for _, c := range n.Children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

// Find returns the first node in the subtree, in document order, for which
// match returns true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindByID returns the first element whose "id" attribute equals id.
func (n *Node) FindByID(id string) *Node {
	return n.Find(func(x *Node) bool {
		v, ok := x.Attrs["id"].(string)
		return ok && v == id
	})
}

// splitProps separates plain attributes from event handlers and drops the
// children prop.
func splitProps(props element.Props) (attrs, handlers map[string]any) {
	attrs = make(map[string]any, len(props))
	handlers = make(map[string]any)
	for k, v := range props {
		if k == element.ChildrenProp {
			continue
		}
		if element.IsEventProp(k) {
			handlers[k] = v
			continue
		}
		attrs[k] = v
	}
	return attrs, handlers
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
