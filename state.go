package statewise

// State is a node of the immutable graph model. A State is shared by every
// machine created from the same graph and is never mutated after Build.
type State[S, E comparable, C any] struct {
	id          S
	parent      *State[S, E, C]
	children    []*State[S, E, C]
	initial     *State[S, E, C]
	composite   CompositeType
	history     HistoryType
	final       bool
	entry       []Action[S, E, C]
	exit        []Action[S, E, C]
	transitions []*Transition[S, E, C]
	byEvent     map[E][]*Transition[S, E, C]
	completion  []*Transition[S, E, C]
	depth       int
	order       int
}

// ID returns the state identifier
func (s *State[S, E, C]) ID() S {
	return s.id
}

// Parent returns the enclosing state, or nil for a top-level state
func (s *State[S, E, C]) Parent() *State[S, E, C] {
	return s.parent
}

// Children returns the child states in declaration order
func (s *State[S, E, C]) Children() []*State[S, E, C] {
	return append([]*State[S, E, C](nil), s.children...)
}

// InitialChild returns the child entered when no history applies. Parallel
// composites have none: all of their children are entered.
func (s *State[S, E, C]) InitialChild() *State[S, E, C] {
	return s.initial
}

// CompositeType reports how children are activated
func (s *State[S, E, C]) CompositeType() CompositeType {
	return s.composite
}

// HistoryType reports what the state remembers on exit
func (s *State[S, E, C]) HistoryType() HistoryType {
	return s.history
}

// IsFinal reports whether the state is terminal
func (s *State[S, E, C]) IsFinal() bool {
	return s.final
}

// IsLeaf reports whether the state has no children
func (s *State[S, E, C]) IsLeaf() bool {
	return len(s.children) == 0
}

// IsComposite reports whether the state has children
func (s *State[S, E, C]) IsComposite() bool {
	return len(s.children) > 0
}

// IsParallel reports whether the children are orthogonal regions
func (s *State[S, E, C]) IsParallel() bool {
	return s.composite == Parallel
}

// Depth is zero for top-level states
func (s *State[S, E, C]) Depth() int {
	return s.depth
}

// EntryActions returns the entry actions in execution order
func (s *State[S, E, C]) EntryActions() []Action[S, E, C] {
	return append([]Action[S, E, C](nil), s.entry...)
}

// ExitActions returns the exit actions in execution order
func (s *State[S, E, C]) ExitActions() []Action[S, E, C] {
	return append([]Action[S, E, C](nil), s.exit...)
}

// Transitions returns the outgoing event transitions in declaration order
func (s *State[S, E, C]) Transitions() []*Transition[S, E, C] {
	return append([]*Transition[S, E, C](nil), s.transitions...)
}

// TransitionsFor returns the transitions triggered by event in declaration order
func (s *State[S, E, C]) TransitionsFor(event E) []*Transition[S, E, C] {
	return append([]*Transition[S, E, C](nil), s.byEvent[event]...)
}

// CompletionTransitions returns the transitions taken automatically when
// every region of this parallel state reaches a final state
func (s *State[S, E, C]) CompletionTransitions() []*Transition[S, E, C] {
	return append([]*Transition[S, E, C](nil), s.completion...)
}

// IsAncestorOf reports whether s strictly contains other
func (s *State[S, E, C]) IsAncestorOf(other *State[S, E, C]) bool {
	if other == nil {
		return false
	}
	for p := other.parent; p != nil; p = p.parent {
		if p == s {
			return true
		}
	}
	return false
}

// contains reports whether other is s or one of its descendants
func (s *State[S, E, C]) contains(other *State[S, E, C]) bool {
	return s == other || s.IsAncestorOf(other)
}

// path returns the chain from the top-level ancestor down to s
func (s *State[S, E, C]) path() []*State[S, E, C] {
	chain := make([]*State[S, E, C], s.depth+1)
	for cur := s; cur != nil; cur = cur.parent {
		chain[cur.depth] = cur
	}
	return chain
}
