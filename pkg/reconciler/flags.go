package reconciler

import "strings"

// WorkTag identifies the kind of a fiber.
type WorkTag uint8

const (
	FunctionComponent WorkTag = iota
	HostRoot
	HostComponent
	HostText
	Fragment
)

// String returns the string representation of the WorkTag.
func (t WorkTag) String() string {
	switch t {
	case FunctionComponent:
		return "FunctionComponent"
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case Fragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Flags marks the host mutations and effects a fiber needs at commit.
type Flags uint16

const (
	NoFlags       Flags = 0
	Placement     Flags = 1 << 1
	Update        Flags = 1 << 2
	ChildDeletion Flags = 1 << 3
	PassiveEffect Flags = 1 << 4

	MutationMask = Placement | Update | ChildDeletion
	PassiveMask  = PassiveEffect | ChildDeletion
)

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Any reports whether any bit of mask is set.
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// String returns the names of the set flags joined by "|".
func (f Flags) String() string {
	if f == NoFlags {
		return "NoFlags"
	}
	var names []string
	if f&Placement != 0 {
		names = append(names, "Placement")
	}
	if f&Update != 0 {
		names = append(names, "Update")
	}
	if f&ChildDeletion != 0 {
		names = append(names, "ChildDeletion")
	}
	if f&PassiveEffect != 0 {
		names = append(names, "PassiveEffect")
	}
	return strings.Join(names, "|")
}
