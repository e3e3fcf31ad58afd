package element

import "fmt"

// New creates an element of the given type.
// typ is a host tag name, a component, or FragmentType.
// Arguments can be: nil, Attr, []Attr, Props, EventHandler, *Element,
// []*Element, []any, string, or any integer/float (text children).
func New(typ any, args ...any) *Element {
	if typ == FragmentType {
		return Fragment(args...)
	}
	return createElement(KindElement, typ, args)
}

// Fragment groups children without a host node.
// Attr and Key arguments are honoured so keyed fragments can be reordered.
func Fragment(args ...any) *Element {
	return createElement(KindFragment, FragmentType, args)
}

// createElement creates a new element with the given kind, type and arguments.
func createElement(kind Kind, typ any, args []any) *Element {
	el := &Element{
		Kind:  kind,
		Type:  typ,
		Props: make(Props),
	}

	var children []any
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes and children)
			continue

		case Attr:
			el.setAttr(v)

		case []Attr:
			for _, a := range v {
				el.setAttr(a)
			}

		case Props:
			for k, val := range v {
				el.setAttr(Attr{Key: k, Value: val})
			}

		case EventHandler:
			if v.Event != "" {
				el.Props[v.Event] = v.Handler
			}

		case *Element:
			if v != nil {
				children = append(children, v)
			}

		case []*Element:
			// A slice is a nested list; it keeps its own key space.
			list := make([]any, 0, len(v))
			for _, child := range v {
				if child != nil {
					list = append(list, child)
				}
			}
			children = append(children, list)

		case []any:
			children = append(children, v)

		case string:
			children = append(children, v)

		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			children = append(children, fmt.Sprint(v))

		case fmt.Stringer:
			children = append(children, v.String())
		}
	}

	switch len(children) {
	case 0:
	case 1:
		el.Props[ChildrenProp] = children[0]
	default:
		el.Props[ChildrenProp] = children
	}
	return el
}

// setAttr stores an attribute, routing "key" to the element key.
func (e *Element) setAttr(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		e.Key = fmt.Sprint(a.Value)
		return
	}
	e.Props[a.Key] = a.Value
}
