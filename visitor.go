package statewise

// Visitor walks a graph. Every node is announced on entry and on exit, so
// nested notations can open and close elements around the children.
type Visitor[S, E comparable, C any] interface {
	VisitGraphEntry(g *Graph[S, E, C])
	VisitGraphExit(g *Graph[S, E, C])
	VisitStateEntry(s *State[S, E, C])
	VisitStateExit(s *State[S, E, C])
	VisitTransitionEntry(t *Transition[S, E, C])
	VisitTransitionExit(t *Transition[S, E, C])
}

// BaseVisitor provides no-op methods for embedding
type BaseVisitor[S, E comparable, C any] struct{}

func (BaseVisitor[S, E, C]) VisitGraphEntry(*Graph[S, E, C])           {}
func (BaseVisitor[S, E, C]) VisitGraphExit(*Graph[S, E, C])            {}
func (BaseVisitor[S, E, C]) VisitStateEntry(*State[S, E, C])           {}
func (BaseVisitor[S, E, C]) VisitStateExit(*State[S, E, C])            {}
func (BaseVisitor[S, E, C]) VisitTransitionEntry(*Transition[S, E, C]) {}
func (BaseVisitor[S, E, C]) VisitTransitionExit(*Transition[S, E, C])  {}

// Accept visits the top-level states in declaration order
func (g *Graph[S, E, C]) Accept(v Visitor[S, E, C]) {
	v.VisitGraphEntry(g)
	for _, s := range g.tops {
		s.Accept(v)
	}
	v.VisitGraphExit(g)
}

// Accept visits the state's transitions, completion transitions last, and
// then its children
func (s *State[S, E, C]) Accept(v Visitor[S, E, C]) {
	v.VisitStateEntry(s)
	for _, t := range s.transitions {
		t.Accept(v)
	}
	for _, t := range s.completion {
		t.Accept(v)
	}
	for _, child := range s.children {
		child.Accept(v)
	}
	v.VisitStateExit(s)
}

// Accept visits the transition
func (t *Transition[S, E, C]) Accept(v Visitor[S, E, C]) {
	v.VisitTransitionEntry(t)
	v.VisitTransitionExit(t)
}

// Accept visits the machine's graph
func (m *Machine[S, E, C]) Accept(v Visitor[S, E, C]) {
	m.graph.Accept(v)
}
