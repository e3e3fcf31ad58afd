package scheduler

import (
	"math"
	"time"
)

// Priority is a scheduler priority level. Lower values are more urgent.
type Priority int32

const (
	NoPriority Priority = iota
	ImmediatePriority
	UserBlockingPriority
	NormalPriority
	LowPriority
	IdlePriority
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case ImmediatePriority:
		return "Immediate"
	case UserBlockingPriority:
		return "UserBlocking"
	case NormalPriority:
		return "Normal"
	case LowPriority:
		return "Low"
	case IdlePriority:
		return "Idle"
	default:
		return "NoPriority"
	}
}

// Timeouts after which a task at the given priority counts as expired.
const (
	immediateTimeout    = -time.Millisecond
	userBlockingTimeout = 250 * time.Millisecond
	normalTimeout       = 5 * time.Second
	lowTimeout          = 10 * time.Second
	idleTimeout         = time.Duration(math.MaxInt64)
)

// timeout returns how long a task at p may wait before it expires.
func (p Priority) timeout() time.Duration {
	switch p {
	case ImmediatePriority:
		return immediateTimeout
	case UserBlockingPriority:
		return userBlockingTimeout
	case LowPriority:
		return lowTimeout
	case IdlePriority:
		return idleTimeout
	default:
		return normalTimeout
	}
}
