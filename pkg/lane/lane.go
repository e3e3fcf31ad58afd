// Package lane implements the bitset priority model used to tag updates.
//
// Each Lane is a single bit; Lanes is any combination of them. Lower bits are
// more urgent, so the highest-priority lane of a set is its lowest set bit.
package lane

import (
	"math/bits"
	"strings"

	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Lane is a single priority bit.
type Lane uint32

// Lanes is a set of lanes.
type Lanes = Lane

const (
	NoLane  Lane = 0
	NoLanes Lanes = 0

	SyncLane            Lane = 0b0001
	InputContinuousLane Lane = 0b0010
	DefaultLane         Lane = 0b0100
	IdleLane            Lane = 0b1000
)

// String returns the names of the lanes in the set, joined by "|".
func (l Lanes) String() string {
	if l == NoLanes {
		return "NoLane"
	}
	var names []string
	for rest := l; rest != NoLanes; {
		bit := Highest(rest)
		switch bit {
		case SyncLane:
			names = append(names, "Sync")
		case InputContinuousLane:
			names = append(names, "InputContinuous")
		case DefaultLane:
			names = append(names, "Default")
		case IdleLane:
			names = append(names, "Idle")
		default:
			names = append(names, "Lane"+itoa(bits.TrailingZeros32(uint32(bit))))
		}
		rest &^= bit
	}
	return strings.Join(names, "|")
}

// Merge returns the union of two lane sets.
func Merge(a, b Lanes) Lanes {
	return a | b
}

// Remove returns set without the lanes in subset.
func Remove(set, subset Lanes) Lanes {
	return set &^ subset
}

// Includes reports whether every lane in subset is part of set.
func Includes(set, subset Lanes) bool {
	return set&subset == subset
}

// Highest returns the most urgent lane of the set (its lowest set bit).
func Highest(lanes Lanes) Lane {
	return lanes & -lanes
}

// ToSchedulerPriority maps the most urgent lane of a set to a scheduler
// priority.
func ToSchedulerPriority(lanes Lanes) scheduler.Priority {
	switch Highest(lanes) {
	case SyncLane:
		return scheduler.ImmediatePriority
	case InputContinuousLane:
		return scheduler.UserBlockingPriority
	case DefaultLane:
		return scheduler.NormalPriority
	default:
		return scheduler.IdlePriority
	}
}

// FromSchedulerPriority maps a scheduler priority to the lane updates raised
// at that priority are tagged with.
func FromSchedulerPriority(p scheduler.Priority) Lane {
	switch p {
	case scheduler.ImmediatePriority:
		return SyncLane
	case scheduler.UserBlockingPriority:
		return InputContinuousLane
	case scheduler.NormalPriority, scheduler.LowPriority:
		return DefaultLane
	case scheduler.IdlePriority:
		return IdleLane
	default:
		return DefaultLane
	}
}

// PriorityReader exposes the ambient scheduler priority.
type PriorityReader interface {
	CurrentPriorityLevel() scheduler.Priority
}

// RequestUpdateLane returns the lane for an update raised right now, derived
// from the ambient priority of whatever triggered it.
func RequestUpdateLane(s PriorityReader) Lane {
	return FromSchedulerPriority(s.CurrentPriorityLevel())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
