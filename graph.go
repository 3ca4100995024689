package statewise

import (
	"errors"
	"fmt"
)

// Graph is the immutable state/transition model produced by a Builder. One
// graph is shared by every machine created from it.
type Graph[S, E comparable, C any] struct {
	states  map[S]*State[S, E, C]
	ordered []*State[S, E, C]
	tops    []*State[S, E, C]
	initial *State[S, E, C]
}

// State looks up a state by id
func (g *Graph[S, E, C]) State(id S) (*State[S, E, C], bool) {
	s, ok := g.states[id]
	return s, ok
}

// Lookup is State for ids coming from outside the program, such as a
// persisted configuration. An unknown id yields a StateError.
func (g *Graph[S, E, C]) Lookup(id S) (*State[S, E, C], error) {
	s, ok := g.states[id]
	if !ok {
		return nil, NewStateNotFoundError(id)
	}
	return s, nil
}

// SavedDataAt builds a configuration with leaves active, suitable for
// Restore. Their ancestors become active too, and composite states no leaf
// lies under descend to their initial child. History starts out empty.
func (g *Graph[S, E, C]) SavedDataAt(leaves ...S) (*SavedData[S, E, C], error) {
	if len(leaves) == 0 {
		return nil, NewMachineError(ErrCodeIncompatibleSnapshot, "SavedDataAt",
			errors.New("no active state given"))
	}
	wants := make([]*State[S, E, C], 0, len(leaves))
	for _, id := range leaves {
		s, err := g.Lookup(id)
		if err != nil {
			return nil, err
		}
		wants = append(wants, s)
	}

	d := newMachineData[S, E, C]()
	var entered []*State[S, E, C]
	walker[S, E, C]{graph: g}.enter(d, wants[0].path()[0], wants, &entered)
	for _, s := range entered {
		d = d.entered(s)
	}
	for _, s := range wants {
		if !d.isActive(s) {
			return nil, NewMachineError(ErrCodeIncompatibleSnapshot, "SavedDataAt",
				fmt.Errorf("states %v cannot be active together", leaves))
		}
	}
	return &SavedData[S, E, C]{graph: g, data: d}, nil
}

// States returns every state in pre-order, siblings in declaration order
func (g *Graph[S, E, C]) States() []*State[S, E, C] {
	return append([]*State[S, E, C](nil), g.ordered...)
}

// TopLevel returns the states without a parent in declaration order
func (g *Graph[S, E, C]) TopLevel() []*State[S, E, C] {
	return append([]*State[S, E, C](nil), g.tops...)
}

// TransitionsFor returns the transitions declared on id for event, in
// declaration order. Unknown states have none.
func (g *Graph[S, E, C]) TransitionsFor(id S, event E) []*Transition[S, E, C] {
	s, ok := g.states[id]
	if !ok {
		return nil
	}
	return s.TransitionsFor(event)
}

// InitialStateID returns the state entered by Start
func (g *Graph[S, E, C]) InitialStateID() S {
	return g.initial.id
}

// InitialState returns the state entered by Start
func (g *Graph[S, E, C]) InitialState() *State[S, E, C] {
	return g.initial
}

// CreateInstance creates a new machine driven by this graph
func (g *Graph[S, E, C]) CreateInstance(opts ...Option) *Machine[S, E, C] {
	return NewMachine(g, opts...)
}
