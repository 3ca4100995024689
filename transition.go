package statewise

import "fmt"

// Transition is an edge of the immutable graph model
type Transition[S, E comparable, C any] struct {
	source     *State[S, E, C]
	target     *State[S, E, C]
	event      E
	completion bool
	toFinal    bool
	condition  Condition[C]
	actions    []Action[S, E, C]
	kind       TransitionType
	priority   Priority
	order      int
}

// Source returns the state declaring the transition
func (t *Transition[S, E, C]) Source() *State[S, E, C] {
	return t.source
}

// Target returns the target state, or nil for transitions to the Final
// pseudo-state
func (t *Transition[S, E, C]) Target() *State[S, E, C] {
	return t.target
}

// Event returns the triggering event. Completion transitions have none.
func (t *Transition[S, E, C]) Event() (E, bool) {
	return t.event, !t.completion
}

// Condition returns the guard; unguarded transitions report Always
func (t *Transition[S, E, C]) Condition() Condition[C] {
	return t.condition
}

// Actions returns the transition actions in execution order
func (t *Transition[S, E, C]) Actions() []Action[S, E, C] {
	return append([]Action[S, E, C](nil), t.actions...)
}

// Type returns the transition type
func (t *Transition[S, E, C]) Type() TransitionType {
	return t.kind
}

// Priority returns the transition priority
func (t *Transition[S, E, C]) Priority() Priority {
	return t.priority
}

// IsFinal reports whether the transition targets the Final pseudo-state
func (t *Transition[S, E, C]) IsFinal() bool {
	return t.toFinal
}

// IsCompletion reports whether the transition fires on parallel completion
func (t *Transition[S, E, C]) IsCompletion() bool {
	return t.completion
}

func (t *Transition[S, E, C]) String() string {
	target := "<final>"
	if t.target != nil {
		target = fmt.Sprint(t.target.id)
	}
	trigger := "<completion>"
	if !t.completion {
		trigger = fmt.Sprint(t.event)
	}
	return fmt.Sprintf("%v-[%s]->%s", t.source.id, trigger, target)
}

// targetID returns the target id and whether there is one
func (t *Transition[S, E, C]) targetID() (S, bool) {
	if t.target == nil {
		var zero S
		return zero, false
	}
	return t.target.id, true
}
