package statewise

import "fmt"

// CompositeType describes how the children of a state are activated
type CompositeType int

const (
	// NonComposite states have no children
	NonComposite CompositeType = iota
	// Sequential composites have exactly one active child at a time
	Sequential
	// Parallel composites keep every child (region) active simultaneously
	Parallel
)

func (c CompositeType) String() string {
	switch c {
	case NonComposite:
		return "none"
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("CompositeType(%d)", int(c))
	}
}

// HistoryType selects what a composite state remembers when it is exited
type HistoryType int

const (
	// NoHistory always re-enters the declared initial child
	NoHistory HistoryType = iota
	// ShallowHistory restores the last active direct child
	ShallowHistory
	// DeepHistory restores the last active leaf configuration
	DeepHistory
)

func (h HistoryType) String() string {
	switch h {
	case NoHistory:
		return "none"
	case ShallowHistory:
		return "shallow"
	case DeepHistory:
		return "deep"
	default:
		return fmt.Sprintf("HistoryType(%d)", int(h))
	}
}

// TransitionType controls which states are exited and re-entered
type TransitionType int

const (
	// External transitions exit the source and enter the target
	External TransitionType = iota
	// Internal transitions only run their actions
	Internal
	// Local transitions do not exit a source that contains the target
	Local
)

func (t TransitionType) String() string {
	switch t {
	case External:
		return "external"
	case Internal:
		return "internal"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("TransitionType(%d)", int(t))
	}
}

// Priority orders candidate transitions declared on the same state.
// Higher values are tried first; equal values keep declaration order.
type Priority int

const (
	LowestPriority  Priority = -100
	LowPriority     Priority = -10
	NormalPriority  Priority = 0
	HighPriority    Priority = 10
	HighestPriority Priority = 100
)

// Status is the lifecycle status of a machine instance
type Status int32

const (
	// StatusInitialized means the machine was created but not started
	StatusInitialized Status = iota
	// StatusIdle means the machine is started and waiting for events
	StatusIdle
	// StatusBusy means a transition is being processed
	StatusBusy
	// StatusTerminated means the machine was terminated
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "Initialized"
	case StatusIdle:
		return "Idle"
	case StatusBusy:
		return "Busy"
	case StatusTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Stage is the last protocol step a transition completed. It is reported
// with failures so callers can tell how much of a transition was applied.
type Stage int

const (
	StageNotStarted Stage = iota
	StageInitialized
	StageStarted
	StageChildrenExited
	StageStateExited
	StageTransitionDone
	StageStateEntered
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not-started"
	case StageInitialized:
		return "initialized"
	case StageStarted:
		return "started"
	case StageChildrenExited:
		return "children-exited"
	case StageStateExited:
		return "state-exited"
	case StageTransitionDone:
		return "transition-done"
	case StageStateEntered:
		return "state-entered"
	case StageFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ResolutionPolicy decides whether ancestors are searched when a state
// declares transitions for an event but none of their guards hold.
type ResolutionPolicy int

const (
	// ShadowByDeclaration stops at the first level declaring the event
	ShadowByDeclaration ResolutionPolicy = iota
	// ShadowByGuard stops at the first level with a satisfied guard
	ShadowByGuard
)
