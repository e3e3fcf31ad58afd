package element

import "strings"

// Kind is the element discriminator.
type Kind uint8

const (
	KindInvalid  Kind = iota // zero value, never produced by constructors
	KindElement              // host tag or component
	KindFragment             // grouping without a host node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindFragment:
		return "Fragment"
	default:
		return "Invalid"
	}
}

// fragmentType is the marker type behind FragmentType.
type fragmentType struct{}

// FragmentType is the Type of every fragment element.
var FragmentType any = &fragmentType{}

// ChildrenProp is the reserved prop holding an element's children.
const ChildrenProp = "children"

// Element is an immutable description of one tree node.
type Element struct {
	Kind  Kind   // Element or fragment marker
	Type  any    // Host tag (string), component pointer, or FragmentType
	Key   string // Reconciliation key, "" when absent
	Props Props  // Attributes, event handlers and children
}

// Props holds attributes, event handlers and the reserved children entry.
type Props map[string]any

// Children returns the children prop, or nil.
func (p Props) Children() any {
	if p == nil {
		return nil
	}
	return p[ChildrenProp]
}

// HasKey reports whether the element carries an explicit key.
func (e *Element) HasKey() bool {
	return e != nil && e.Key != ""
}

// IsFragment reports whether the element is a fragment.
func (e *Element) IsFragment() bool {
	return e != nil && (e.Kind == KindFragment || e.Type == FragmentType)
}

// Tag returns the host tag name, or "" for components and fragments.
func (e *Element) Tag() string {
	if e == nil {
		return ""
	}
	tag, _ := e.Type.(string)
	return tag
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler prop.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call
}

// IsEventProp returns true if the prop name is an event handler (starts with "on").
// Case-insensitive to catch onclick, ONCLICK, onClick.
func IsEventProp(name string) bool {
	return len(name) > 2 && strings.EqualFold(name[:2], "on")
}
