// Package host defines the environment the reconciler renders into.
//
// A host owns the concrete nodes (a document, a terminal buffer, a test
// tree). The reconciler only ever talks to it through Config: instances are
// created offscreen during the render phase and attached to the live
// container during commit.
package host

import "github.com/vango-dev/reconciler/pkg/element"

// Instance is an opaque host node.
type Instance any

// Container is the opaque host node a root renders into.
type Container any

// Config is the set of primitives the reconciler needs from a host.
type Config interface {
	// CreateInstance allocates an offscreen node for a host tag. The node
	// must not be attached to any parent yet.
	CreateInstance(tag string, props element.Props) Instance

	// CreateTextInstance allocates an offscreen text node.
	CreateTextInstance(text string) Instance

	// AppendInitialChild attaches child to parent while the subtree is
	// still offscreen.
	AppendInitialChild(parent, child Instance)

	// AppendChildToContainer appends child as the last child of container.
	// Appending a child that is already attached moves it.
	AppendChildToContainer(child Instance, container Container)

	// InsertChildToContainer inserts child into container before the
	// sibling before. Inserting an attached child moves it.
	InsertChildToContainer(child Instance, container Container, before Instance)

	// RemoveChild detaches child from container.
	RemoveChild(child Instance, container Container)

	// CommitUpdate applies a patch to an existing node. For text nodes
	// the props carry the text under TextProp.
	CommitUpdate(instance Instance, kind UpdateKind, oldProps, newProps element.Props)

	// ScheduleMicrotask defers fn to the soonest possible future turn.
	ScheduleMicrotask(fn func())
}

// PropsUpdater is implemented by hosts that rebind props (typically event
// handlers) on an existing node as soon as the node completes, ahead of
// commit.
type PropsUpdater interface {
	UpdateProps(instance Instance, props element.Props)
}

// UpdateKind tells CommitUpdate which kind of node is being patched.
type UpdateKind uint8

const (
	UpdateText       UpdateKind = iota + 1 // text content changed
	UpdateAttributes                       // non-handler attributes changed
)

// String returns the string representation of the UpdateKind.
func (k UpdateKind) String() string {
	switch k {
	case UpdateText:
		return "text"
	case UpdateAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// TextProp is the prop carrying the content of a text node in CommitUpdate.
const TextProp = "text"
