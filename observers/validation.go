package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/statewise"
)

type edge[S comparable] struct {
	from, to S
}

// ValidationObserver records transitions that leave the allowed set and
// every failed transition. It is meant for tests asserting that a machine
// only moves along expected paths.
type ValidationObserver[S, E comparable, C any] struct {
	statewise.BaseObserver[S, E, C]

	mu       sync.RWMutex
	expected map[S]bool
	visited  map[S]bool
	allowed  map[edge[S]]bool
	sources  map[S]bool

	violations []string
}

// NewValidationObserver creates an observer with nothing expected and every
// transition allowed
func NewValidationObserver[S, E comparable, C any]() *ValidationObserver[S, E, C] {
	return &ValidationObserver[S, E, C]{
		expected: make(map[S]bool),
		visited:  make(map[S]bool),
		allowed:  make(map[edge[S]]bool),
		sources:  make(map[S]bool),
	}
}

// ExpectState adds a state that should be entered at some point
func (o *ValidationObserver[S, E, C]) ExpectState(id S) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expected[id] = true
}

// AllowTransition allows from -> to. Once a source has one allowed target,
// every other target from it is a violation.
func (o *ValidationObserver[S, E, C]) AllowTransition(from, to S) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.allowed[edge[S]{from, to}] = true
	o.sources[from] = true
}

// OnStart records the initial leaves as visited
func (o *ValidationObserver[S, E, C]) OnStart(n statewise.Notification[S, E, C]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.markVisited(n)
}

// OnTransitionComplete checks the transition against the allowed set
func (o *ValidationObserver[S, E, C]) OnTransitionComplete(n statewise.Notification[S, E, C]) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.markVisited(n)
	if !n.HasTarget || !o.sources[n.From] {
		return
	}
	if !o.allowed[edge[S]{n.From, n.To}] {
		o.violations = append(o.violations, fmt.Sprintf(
			"invalid transition from '%v' to '%v' on event '%v'", n.From, n.To, n.Event))
	}
}

// OnTransitionException records the failure
func (o *ValidationObserver[S, E, C]) OnTransitionException(n statewise.Notification[S, E, C]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("transition %s failed: %v", n.TransitionID, n.Err))
}

func (o *ValidationObserver[S, E, C]) markVisited(n statewise.Notification[S, E, C]) {
	if n.Data == nil {
		return
	}
	for _, id := range n.Data.ActiveStates() {
		o.visited[id] = true
	}
}

// Violations returns every recorded violation in order
func (o *ValidationObserver[S, E, C]) Violations() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.violations...)
}

// HasViolations reports whether any violation was recorded
func (o *ValidationObserver[S, E, C]) HasViolations() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.violations) > 0
}

// UnvisitedStates returns the expected states that were never active
func (o *ValidationObserver[S, E, C]) UnvisitedStates() []S {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var unvisited []S
	for id := range o.expected {
		if !o.visited[id] {
			unvisited = append(unvisited, id)
		}
	}
	return unvisited
}

// Reset clears visits and violations but keeps expectations
func (o *ValidationObserver[S, E, C]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visited = make(map[S]bool)
	o.violations = nil
}

var _ statewise.ExtendedObserver[string, string, any] = (*ValidationObserver[string, string, any])(nil)
