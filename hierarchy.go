package statewise

// exitStep is one state to exit together with the history recorded for it.
// History is captured before any state of the transition is exited.
type exitStep[S, E comparable, C any] struct {
	state  *State[S, E, C]
	child  *State[S, E, C]
	leaves []*State[S, E, C]
}

// plan is the exit and entry sequence of one transition
type plan[S, E comparable, C any] struct {
	transition *Transition[S, E, C]
	scope      *State[S, E, C]
	exits      []exitStep[S, E, C]
	entries    []*State[S, E, C]
}

// apply returns the configuration reached once the plan has run
func (p *plan[S, E, C]) apply(d *machineData[S, E, C]) *machineData[S, E, C] {
	for _, step := range p.exits {
		d = d.exited(step)
	}
	for _, s := range p.entries {
		d = d.entered(s)
	}
	if p.transition != nil && p.transition.toFinal {
		d = d.withFinished(true)
	}
	return d
}

// walker computes exit and entry sequences over a graph
type walker[S, E comparable, C any] struct {
	graph *Graph[S, E, C]
}

// lca returns the innermost state containing both a and b, or nil when they
// belong to different top-level states
func lca[S, E comparable, C any](a, b *State[S, E, C]) *State[S, E, C] {
	for a != nil && b != nil && a != b {
		if a.depth >= b.depth {
			a = a.parent
		} else {
			b = b.parent
		}
	}
	if a == nil || b == nil {
		return nil
	}
	return a
}

// scope returns the state whose active descendants are exited and whose
// descendants are entered. A nil scope stands for the implicit root above
// the top-level states.
func scope[S, E comparable, C any](t *Transition[S, E, C]) *State[S, E, C] {
	source, target := t.source, t.target
	if t.toFinal {
		return nil
	}
	if t.kind == Local {
		switch {
		case source == target && source.IsComposite():
			return source
		case source.IsAncestorOf(target):
			return source
		case target.IsAncestorOf(source):
			return target
		}
	}
	l := lca(source, target)
	if l == source || l == target {
		l = l.parent
	}
	return l
}

// plan computes the exit and entry sequence of t against configuration d.
// Internal transitions exit and enter nothing.
func (w walker[S, E, C]) plan(d *machineData[S, E, C], t *Transition[S, E, C]) *plan[S, E, C] {
	p := &plan[S, E, C]{transition: t}
	if t.kind == Internal {
		p.scope = t.source
		return p
	}
	p.scope = scope(t)
	p.exits = w.exits(d, p.scope)

	after := d
	for _, step := range p.exits {
		after = after.exited(step)
	}
	if t.target != nil {
		p.entries = w.entries(after, p.scope, t.target)
	}
	return p
}

// startPlan enters the path from the top-level state down to the initial
// state and resolves its entry leaves
func (w walker[S, E, C]) startPlan(d *machineData[S, E, C]) *plan[S, E, C] {
	return &plan[S, E, C]{entries: w.entries(d, nil, w.graph.initial)}
}

// terminatePlan exits every active state
func (w walker[S, E, C]) terminatePlan(d *machineData[S, E, C]) *plan[S, E, C] {
	return &plan[S, E, C]{exits: w.exits(d, nil)}
}

// exits lists the active descendants of scope in post-order: children before
// their parent, regions in declaration order
func (w walker[S, E, C]) exits(d *machineData[S, E, C], scope *State[S, E, C]) []exitStep[S, E, C] {
	var out []exitStep[S, E, C]
	var visit func(s *State[S, E, C])
	visit = func(s *State[S, E, C]) {
		for _, child := range s.children {
			if d.isActive(child) {
				visit(child)
			}
		}
		step := exitStep[S, E, C]{state: s}
		if s.history != NoHistory {
			if !s.IsParallel() {
				step.child = d.activeChild(s)
			}
			step.leaves = d.leavesUnder(s)
		}
		out = append(out, step)
	}

	roots := w.graph.tops
	if scope != nil {
		roots = scope.children
	}
	for _, root := range roots {
		if d.isActive(root) {
			visit(root)
		}
	}
	return out
}

// entries lists the states entered below scope to reach target, in
// pre-order. Composite states on the way are resolved through history and
// initial children; parallel states enter every region.
func (w walker[S, E, C]) entries(d *machineData[S, E, C], scope, target *State[S, E, C]) []*State[S, E, C] {
	var out []*State[S, E, C]
	wants := []*State[S, E, C]{target}
	if scope == nil {
		w.enter(d, target.path()[0], wants, &out)
	} else {
		w.descend(d, scope, wants, &out)
	}
	return out
}

func (w walker[S, E, C]) enter(d *machineData[S, E, C], s *State[S, E, C], wants []*State[S, E, C], out *[]*State[S, E, C]) {
	*out = append(*out, s)
	w.descend(d, s, wants, out)
}

// descend enters the children of s. wants are the states that must end up
// active; when none lies below s, deep history supplies them.
func (w walker[S, E, C]) descend(d *machineData[S, E, C], s *State[S, E, C], wants []*State[S, E, C], out *[]*State[S, E, C]) {
	if s.IsLeaf() {
		return
	}

	var inside []*State[S, E, C]
	for _, want := range wants {
		if s.IsAncestorOf(want) {
			inside = append(inside, want)
		}
	}
	if len(inside) == 0 && s.history == DeepHistory {
		for _, id := range d.deepHistory(s) {
			if leaf, ok := w.graph.states[id]; ok && s.IsAncestorOf(leaf) {
				inside = append(inside, leaf)
			}
		}
	}

	if s.IsParallel() {
		for _, region := range s.children {
			w.enter(d, region, inside, out)
		}
		return
	}

	var next *State[S, E, C]
	for _, child := range s.children {
		for _, want := range inside {
			if child.contains(want) {
				next = child
				break
			}
		}
		if next != nil {
			break
		}
	}
	if next == nil && s.history != NoHistory {
		if id, ok := d.shallowHistory(s); ok {
			next = w.graph.states[id]
		}
	}
	if next == nil {
		next = s.initial
	}
	w.enter(d, next, inside, out)
}
