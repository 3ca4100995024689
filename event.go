package statewise

// FireResult represents the result of processing an event
type FireResult[S comparable] struct {
	// TransitionID correlates notifications and log lines of this fire
	TransitionID string
	// Processed is true when at least one transition was selected
	Processed bool
	// Declined is true when no transition accepted the event
	Declined bool
	// Queued is true when the event was fired from within a transition of
	// the same machine; it is applied once that transition completes
	Queued        bool
	StateChanged  bool
	PreviousState S
	CurrentState  S
	// Transitions counts the transitions applied, completion transitions
	// included
	Transitions int
}

// Success returns true if the event was processed without being declined
func (r *FireResult[S]) Success() bool {
	return r.Processed && !r.Declined
}

func newDeclinedResult[S comparable](id string, current S) *FireResult[S] {
	return &FireResult[S]{
		TransitionID:  id,
		Declined:      true,
		PreviousState: current,
		CurrentState:  current,
	}
}

// TestResult previews the outcome of an event without applying it
type TestResult[S comparable] struct {
	Declined bool
	// Exited lists the states that would be exited, innermost first
	Exited []S
	// Entered lists the states that would be entered, outermost first
	Entered      []S
	ActiveStates []S
	ActiveLeaves []S
	CurrentState S
	HasCurrent   bool
}
