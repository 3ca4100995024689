package statewise

import (
	"github.com/benbjohnson/immutable"
)

// machineData is the per-instance configuration. Values are never mutated in
// place: every change produces a new machineData sharing structure with the
// previous one, so a published pointer is always a consistent snapshot.
type machineData[S, E comparable, C any] struct {
	active   *immutable.SortedMap[int, *State[S, E, C]]
	shallow  *immutable.Map[S, S]
	deep     *immutable.Map[S, *immutable.List[S]]
	event    E
	hasEvent bool
	payload  C
	finished bool
}

func newMachineData[S, E comparable, C any]() *machineData[S, E, C] {
	return &machineData[S, E, C]{
		active:  immutable.NewSortedMap[int, *State[S, E, C]](orderComparer{}),
		shallow: immutable.NewMap[S, S](newHasher[S]()),
		deep:    immutable.NewMap[S, *immutable.List[S]](newHasher[S]()),
	}
}

func (d *machineData[S, E, C]) isActive(s *State[S, E, C]) bool {
	_, ok := d.active.Get(s.order)
	return ok
}

// states returns the active states in pre-order
func (d *machineData[S, E, C]) states() []*State[S, E, C] {
	out := make([]*State[S, E, C], 0, d.active.Len())
	itr := d.active.Iterator()
	for !itr.Done() {
		_, s, _ := itr.Next()
		out = append(out, s)
	}
	return out
}

// top returns the active top-level state
func (d *machineData[S, E, C]) top() *State[S, E, C] {
	itr := d.active.Iterator()
	if itr.Done() {
		return nil
	}
	_, s, _ := itr.Next()
	return s
}

// activeChild returns the first active child of s in declaration order
func (d *machineData[S, E, C]) activeChild(s *State[S, E, C]) *State[S, E, C] {
	for _, child := range s.children {
		if d.isActive(child) {
			return child
		}
	}
	return nil
}

// leaves returns the active states without an active child, in pre-order
func (d *machineData[S, E, C]) leaves() []*State[S, E, C] {
	var out []*State[S, E, C]
	for _, s := range d.states() {
		if d.activeChild(s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// leavesUnder returns the active leaves contained in s, s included
func (d *machineData[S, E, C]) leavesUnder(s *State[S, E, C]) []*State[S, E, C] {
	if !d.isActive(s) {
		return nil
	}
	child := false
	var out []*State[S, E, C]
	for _, c := range s.children {
		if d.isActive(c) {
			child = true
			out = append(out, d.leavesUnder(c)...)
		}
	}
	if !child {
		out = append(out, s)
	}
	return out
}

// current returns the single active leaf, or the innermost state containing
// every active leaf when parallel regions are active
func (d *machineData[S, E, C]) current() (*State[S, E, C], bool) {
	leaves := d.leaves()
	if len(leaves) == 0 {
		return nil, false
	}
	cur := leaves[0]
	for _, leaf := range leaves[1:] {
		cur = lca(cur, leaf)
	}
	return cur, cur != nil
}

// exited removes the state of step from the configuration, recording
// history for it
func (d *machineData[S, E, C]) exited(step exitStep[S, E, C]) *machineData[S, E, C] {
	next := *d
	next.active = d.active.Delete(step.state.order)
	if step.state.history == NoHistory {
		return &next
	}
	if step.child != nil {
		next.shallow = d.shallow.Set(step.state.id, step.child.id)
	}
	if step.state.history == DeepHistory && len(step.leaves) > 0 {
		list := immutable.NewList[S]()
		for _, leaf := range step.leaves {
			list = list.Append(leaf.id)
		}
		next.deep = d.deep.Set(step.state.id, list)
	}
	return &next
}

func (d *machineData[S, E, C]) entered(s *State[S, E, C]) *machineData[S, E, C] {
	next := *d
	next.active = d.active.Set(s.order, s)
	return &next
}

func (d *machineData[S, E, C]) withEvent(event E, hasEvent bool, payload C) *machineData[S, E, C] {
	next := *d
	next.event = event
	next.hasEvent = hasEvent
	next.payload = payload
	return &next
}

func (d *machineData[S, E, C]) withFinished(finished bool) *machineData[S, E, C] {
	next := *d
	next.finished = finished
	return &next
}

// isFinal reports whether no further event can be resolved: the Final
// pseudo-state was reached or the active top-level state is final
func (d *machineData[S, E, C]) isFinal() bool {
	if d.finished {
		return true
	}
	top := d.top()
	return top != nil && top.final
}

func (d *machineData[S, E, C]) shallowHistory(s *State[S, E, C]) (S, bool) {
	return d.shallow.Get(s.id)
}

func (d *machineData[S, E, C]) deepHistory(s *State[S, E, C]) []S {
	list, ok := d.deep.Get(s.id)
	if !ok {
		return nil
	}
	out := make([]S, 0, list.Len())
	itr := list.Iterator()
	for !itr.Done() {
		_, id := itr.Next()
		out = append(out, id)
	}
	return out
}

// SavedData is a read-only snapshot of a machine's configuration, returned
// by DumpSavedData and accepted by Restore on a fresh machine of the same
// graph.
type SavedData[S, E comparable, C any] struct {
	graph *Graph[S, E, C]
	data  *machineData[S, E, C]
}

// CurrentState returns the single active leaf, or the innermost state
// containing every active leaf when parallel regions are active
func (sd *SavedData[S, E, C]) CurrentState() (S, bool) {
	s, ok := sd.data.current()
	if !ok {
		var zero S
		return zero, false
	}
	return s.id, true
}

// ActiveStates returns every active state in pre-order
func (sd *SavedData[S, E, C]) ActiveStates() []S {
	return ids(sd.data.states())
}

// ActiveLeaves returns the active leaf of every region
func (sd *SavedData[S, E, C]) ActiveLeaves() []S {
	return ids(sd.data.leaves())
}

// ActiveChild returns the active child of a composite state
func (sd *SavedData[S, E, C]) ActiveChild(id S) (S, bool) {
	var zero S
	s, ok := sd.graph.State(id)
	if !ok {
		return zero, false
	}
	child := sd.data.activeChild(s)
	if child == nil {
		return zero, false
	}
	return child.id, true
}

// History returns the child that was active when id was last exited
func (sd *SavedData[S, E, C]) History(id S) (S, bool) {
	return sd.data.shallow.Get(id)
}

// DeepHistory returns the leaves that were active when id was last exited
func (sd *SavedData[S, E, C]) DeepHistory(id S) []S {
	s, ok := sd.graph.State(id)
	if !ok {
		return nil
	}
	return sd.data.deepHistory(s)
}

// LastEvent returns the event of the last applied transition
func (sd *SavedData[S, E, C]) LastEvent() (E, bool) {
	return sd.data.event, sd.data.hasEvent
}

// LastPayload returns the payload of the last applied operation
func (sd *SavedData[S, E, C]) LastPayload() C {
	return sd.data.payload
}

// IsFinished reports whether the machine reached a final configuration
func (sd *SavedData[S, E, C]) IsFinished() bool {
	return sd.data.isFinal()
}

func ids[S, E comparable, C any](states []*State[S, E, C]) []S {
	out := make([]S, len(states))
	for i, s := range states {
		out[i] = s.id
	}
	return out
}
