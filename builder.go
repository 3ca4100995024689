package statewise

import "fmt"

// StateBuilder handles the configuration of a single state
type StateBuilder[S, E comparable, C any] interface {
	// State actions
	OnEntry(fn ActionFunc[S, E, C], opts ...ActionOption) StateBuilder[S, E, C]
	OnExit(fn ActionFunc[S, E, C], opts ...ActionOption) StateBuilder[S, E, C]
	OnEntryAction(action Action[S, E, C]) StateBuilder[S, E, C]
	OnExitAction(action Action[S, E, C]) StateBuilder[S, E, C]

	// Hierarchy
	Sequential(children ...S) StateBuilder[S, E, C]
	Parallel(children ...S) StateBuilder[S, E, C]
	Initial(child S) StateBuilder[S, E, C]
	History(kind HistoryType) StateBuilder[S, E, C]

	Final() StateBuilder[S, E, C]
}

// TransitionBuilder handles transition configuration with inline actions
type TransitionBuilder[S, E comparable, C any] interface {
	// Conditions
	When(guard GuardFunc[C]) TransitionBuilder[S, E, C]
	Unless(guard GuardFunc[C]) TransitionBuilder[S, E, C]
	Guard(cond Condition[C]) TransitionBuilder[S, E, C]

	// Actions
	Do(fn ActionFunc[S, E, C], opts ...ActionOption) TransitionBuilder[S, E, C]
	DoAction(action Action[S, E, C]) TransitionBuilder[S, E, C]

	Priority(priority Priority) TransitionBuilder[S, E, C]

	// Transition type, External by default
	Internal() TransitionBuilder[S, E, C]
	Local() TransitionBuilder[S, E, C]
	External() TransitionBuilder[S, E, C]
}

// Builder collects state and transition declarations and validates them
// into a Graph. A Builder is not safe for concurrent use.
type Builder[S, E comparable, C any] struct {
	states      map[S]*stateSpec[S, E, C]
	order       []S
	transitions []*transitionSpec[S, E, C]
	initial     S
	hasInitial  bool
}

type stateSpec[S, E comparable, C any] struct {
	id         S
	children   []S
	composite  CompositeType
	initial    S
	hasInitial bool
	history    HistoryType
	final      bool
	entry      []Action[S, E, C]
	exit       []Action[S, E, C]
}

type transitionSpec[S, E comparable, C any] struct {
	from       S
	to         S
	event      E
	completion bool
	toFinal    bool
	condition  Condition[C]
	actions    []Action[S, E, C]
	kind       TransitionType
	priority   Priority
}

func (ts *transitionSpec[S, E, C]) String() string {
	target := "<final>"
	if !ts.toFinal {
		target = fmt.Sprint(ts.to)
	}
	trigger := "<completion>"
	if !ts.completion {
		trigger = fmt.Sprint(ts.event)
	}
	return fmt.Sprintf("%v-[%s]->%s", ts.from, trigger, target)
}

// duplicateKey identifies transitions that can never be told apart at fire time
type duplicateKey[S, E comparable] struct {
	from       S
	to         S
	toFinal    bool
	event      E
	completion bool
	kind       TransitionType
	condition  string
}

// NewBuilder creates an empty graph builder
func NewBuilder[S, E comparable, C any]() *Builder[S, E, C] {
	return &Builder[S, E, C]{
		states: make(map[S]*stateSpec[S, E, C]),
	}
}

// State declares a state, or returns the builder of an already declared one
func (b *Builder[S, E, C]) State(id S) StateBuilder[S, E, C] {
	return &stateBuilderImpl[S, E, C]{builder: b, spec: b.declare(id)}
}

// Initial sets the state entered by Start. It may be nested; its ancestors
// are entered first.
func (b *Builder[S, E, C]) Initial(id S) *Builder[S, E, C] {
	b.initial = id
	b.hasInitial = true
	return b
}

// Transition declares an external transition from one state to another
func (b *Builder[S, E, C]) Transition(from, to S, event E) TransitionBuilder[S, E, C] {
	return b.add(&transitionSpec[S, E, C]{from: from, to: to, event: event})
}

// Internal declares a transition that runs its actions without leaving state
func (b *Builder[S, E, C]) Internal(state S, event E) TransitionBuilder[S, E, C] {
	return b.add(&transitionSpec[S, E, C]{from: state, to: state, event: event, kind: Internal})
}

// ToFinal declares a transition to the Final pseudo-state. Taking it exits
// every active state and finishes the machine.
func (b *Builder[S, E, C]) ToFinal(from S, event E) TransitionBuilder[S, E, C] {
	return b.add(&transitionSpec[S, E, C]{from: from, event: event, toFinal: true})
}

// OnCompletion declares a transition taken automatically once every region
// of the parallel state from has reached a final state
func (b *Builder[S, E, C]) OnCompletion(from, to S) TransitionBuilder[S, E, C] {
	return b.add(&transitionSpec[S, E, C]{from: from, to: to, completion: true})
}

func (b *Builder[S, E, C]) declare(id S) *stateSpec[S, E, C] {
	if spec, ok := b.states[id]; ok {
		return spec
	}
	spec := &stateSpec[S, E, C]{id: id}
	b.states[id] = spec
	b.order = append(b.order, id)
	return spec
}

func (b *Builder[S, E, C]) add(spec *transitionSpec[S, E, C]) TransitionBuilder[S, E, C] {
	b.transitions = append(b.transitions, spec)
	return &transitionBuilderImpl[S, E, C]{spec: spec}
}

// MustBuild is like Build but panics on an invalid definition
func (b *Builder[S, E, C]) MustBuild() *Graph[S, E, C] {
	g, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build machine: %v", err))
	}
	return g
}

// Build validates the declarations and produces the graph. Every problem
// found is reported in a single DefinitionError.
func (b *Builder[S, E, C]) Build() (*Graph[S, E, C], error) {
	problems := &DefinitionError{}

	parent := b.linkParents(problems)
	if len(problems.Problems) > 0 {
		return nil, problems
	}

	g := &Graph[S, E, C]{
		states: make(map[S]*State[S, E, C], len(b.states)),
	}
	for _, id := range b.order {
		spec := b.states[id]
		g.states[id] = &State[S, E, C]{
			id:        id,
			composite: spec.composite,
			history:   spec.history,
			final:     spec.final,
			entry:     append([]Action[S, E, C](nil), spec.entry...),
			exit:      append([]Action[S, E, C](nil), spec.exit...),
			byEvent:   make(map[E][]*Transition[S, E, C]),
		}
	}
	for _, id := range b.order {
		state := g.states[id]
		for _, child := range b.states[id].children {
			state.children = append(state.children, g.states[child])
			g.states[child].parent = state
		}
		if _, ok := parent[id]; !ok {
			g.tops = append(g.tops, state)
		}
	}
	for _, top := range g.tops {
		g.number(top, 0)
	}

	b.validateStates(g, problems)
	b.wireTransitions(g, problems)

	if err := problems.orNil(); err != nil {
		return nil, err
	}
	return g, nil
}

// linkParents maps every child to its parent, reporting states listed
// under more than one parent and parent chains that loop
func (b *Builder[S, E, C]) linkParents(problems *DefinitionError) map[S]S {
	parent := make(map[S]S)
	for _, id := range b.order {
		for _, child := range b.states[id].children {
			if child == id {
				problems.add("state %v is its own child", id)
				continue
			}
			if p, ok := parent[child]; ok {
				if p == id {
					problems.add("state %v is listed twice under %v", child, id)
				} else {
					problems.add("state %v has multiple parents: %v and %v", child, p, id)
				}
				continue
			}
			parent[child] = id
		}
	}

	for _, id := range b.order {
		seen := map[S]bool{id: true}
		for cur, ok := parent[id]; ok; cur, ok = parent[cur] {
			if seen[cur] {
				problems.add("state %v is its own ancestor", id)
				break
			}
			seen[cur] = true
		}
	}
	return parent
}

func (g *Graph[S, E, C]) number(s *State[S, E, C], depth int) {
	s.depth = depth
	s.order = len(g.ordered)
	g.ordered = append(g.ordered, s)
	for _, child := range s.children {
		g.number(child, depth+1)
	}
}

func (b *Builder[S, E, C]) validateStates(g *Graph[S, E, C], problems *DefinitionError) {
	for _, id := range b.order {
		spec := b.states[id]
		state := g.states[id]

		switch {
		case len(spec.children) == 0:
			state.composite = NonComposite
			if spec.hasInitial {
				problems.add("state %v declares initial child %v but has no children", id, spec.initial)
			}
			if spec.history != NoHistory {
				problems.add("state %v declares %s history but has no children", id, spec.history)
			}
		case spec.composite == Parallel:
			if spec.hasInitial {
				problems.add("parallel state %v cannot declare an initial child", id)
			}
		default:
			state.composite = Sequential
			if !spec.hasInitial {
				problems.add("composite state %v has no initial child", id)
				break
			}
			initial, ok := g.states[spec.initial]
			if !ok || initial.parent != state {
				problems.add("initial child %v of %v is not one of its children", spec.initial, id)
				break
			}
			state.initial = initial
		}

		if spec.final && len(spec.children) > 0 {
			problems.add("final state %v cannot have children", id)
		}
	}

	switch {
	case !b.hasInitial:
		problems.add("no initial state")
	case g.states[b.initial] == nil:
		problems.add("initial state %v is not defined", b.initial)
	default:
		g.initial = g.states[b.initial]
	}
}

func (b *Builder[S, E, C]) wireTransitions(g *Graph[S, E, C], problems *DefinitionError) {
	seen := make(map[duplicateKey[S, E]]bool, len(b.transitions))

	for i, spec := range b.transitions {
		source, ok := g.states[spec.from]
		if !ok {
			problems.add("transition %s references undefined state %v", spec, spec.from)
			continue
		}
		var target *State[S, E, C]
		if !spec.toFinal {
			if target, ok = g.states[spec.to]; !ok {
				problems.add("transition %s references undefined state %v", spec, spec.to)
				continue
			}
		}

		if source.final {
			problems.add("final state %v cannot declare transition %s", spec.from, spec)
			continue
		}
		if spec.kind == Internal && (spec.toFinal || spec.to != spec.from) {
			problems.add("internal transition %s must target its source", spec)
			continue
		}
		if spec.completion && !source.IsParallel() {
			problems.add("completion transition %s must be declared on a parallel state", spec)
			continue
		}

		condition := spec.condition
		if condition == nil {
			condition = Always[C]()
		}
		key := duplicateKey[S, E]{
			from:       spec.from,
			to:         spec.to,
			toFinal:    spec.toFinal,
			event:      spec.event,
			completion: spec.completion,
			kind:       spec.kind,
			condition:  condition.Name(),
		}
		if seen[key] {
			problems.add("duplicate transition %s with condition %s", spec, condition.Name())
			continue
		}
		seen[key] = true

		t := &Transition[S, E, C]{
			source:     source,
			target:     target,
			event:      spec.event,
			completion: spec.completion,
			toFinal:    spec.toFinal,
			condition:  condition,
			actions:    append([]Action[S, E, C](nil), spec.actions...),
			kind:       spec.kind,
			priority:   spec.priority,
			order:      i,
		}
		if t.completion {
			source.completion = append(source.completion, t)
			continue
		}
		source.transitions = append(source.transitions, t)
		source.byEvent[t.event] = append(source.byEvent[t.event], t)
	}
}

// stateBuilderImpl implements StateBuilder
type stateBuilderImpl[S, E comparable, C any] struct {
	builder *Builder[S, E, C]
	spec    *stateSpec[S, E, C]
}

func (sb *stateBuilderImpl[S, E, C]) OnEntry(fn ActionFunc[S, E, C], opts ...ActionOption) StateBuilder[S, E, C] {
	return sb.OnEntryAction(NewAction(fn, opts...))
}

func (sb *stateBuilderImpl[S, E, C]) OnExit(fn ActionFunc[S, E, C], opts ...ActionOption) StateBuilder[S, E, C] {
	return sb.OnExitAction(NewAction(fn, opts...))
}

func (sb *stateBuilderImpl[S, E, C]) OnEntryAction(action Action[S, E, C]) StateBuilder[S, E, C] {
	sb.spec.entry = append(sb.spec.entry, action)
	return sb
}

func (sb *stateBuilderImpl[S, E, C]) OnExitAction(action Action[S, E, C]) StateBuilder[S, E, C] {
	sb.spec.exit = append(sb.spec.exit, action)
	return sb
}

// Sequential adds children of which exactly one is active at a time.
// Children are declared implicitly.
func (sb *stateBuilderImpl[S, E, C]) Sequential(children ...S) StateBuilder[S, E, C] {
	sb.spec.composite = Sequential
	sb.adopt(children)
	return sb
}

// Parallel adds children that are all active as independent regions
func (sb *stateBuilderImpl[S, E, C]) Parallel(children ...S) StateBuilder[S, E, C] {
	sb.spec.composite = Parallel
	sb.adopt(children)
	return sb
}

func (sb *stateBuilderImpl[S, E, C]) adopt(children []S) {
	for _, child := range children {
		sb.builder.declare(child)
		sb.spec.children = append(sb.spec.children, child)
	}
}

func (sb *stateBuilderImpl[S, E, C]) Initial(child S) StateBuilder[S, E, C] {
	sb.spec.initial = child
	sb.spec.hasInitial = true
	return sb
}

func (sb *stateBuilderImpl[S, E, C]) History(kind HistoryType) StateBuilder[S, E, C] {
	sb.spec.history = kind
	return sb
}

func (sb *stateBuilderImpl[S, E, C]) Final() StateBuilder[S, E, C] {
	sb.spec.final = true
	return sb
}

// transitionBuilderImpl implements TransitionBuilder
type transitionBuilderImpl[S, E comparable, C any] struct {
	spec *transitionSpec[S, E, C]
}

func (tb *transitionBuilderImpl[S, E, C]) When(guard GuardFunc[C]) TransitionBuilder[S, E, C] {
	return tb.Guard(guard)
}

func (tb *transitionBuilderImpl[S, E, C]) Unless(guard GuardFunc[C]) TransitionBuilder[S, E, C] {
	return tb.Guard(Not[C](guard))
}

func (tb *transitionBuilderImpl[S, E, C]) Guard(cond Condition[C]) TransitionBuilder[S, E, C] {
	tb.spec.condition = cond
	return tb
}

func (tb *transitionBuilderImpl[S, E, C]) Do(fn ActionFunc[S, E, C], opts ...ActionOption) TransitionBuilder[S, E, C] {
	return tb.DoAction(NewAction(fn, opts...))
}

func (tb *transitionBuilderImpl[S, E, C]) DoAction(action Action[S, E, C]) TransitionBuilder[S, E, C] {
	tb.spec.actions = append(tb.spec.actions, action)
	return tb
}

func (tb *transitionBuilderImpl[S, E, C]) Priority(priority Priority) TransitionBuilder[S, E, C] {
	tb.spec.priority = priority
	return tb
}

func (tb *transitionBuilderImpl[S, E, C]) Internal() TransitionBuilder[S, E, C] {
	tb.spec.kind = Internal
	return tb
}

func (tb *transitionBuilderImpl[S, E, C]) Local() TransitionBuilder[S, E, C] {
	tb.spec.kind = Local
	return tb
}

func (tb *transitionBuilderImpl[S, E, C]) External() TransitionBuilder[S, E, C] {
	tb.spec.kind = External
	return tb
}
