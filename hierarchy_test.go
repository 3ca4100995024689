package statewise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hierarchyGraph builds
//
//	root(a, b(b1, b2(x, y)))
//	par || r1(r1a, r1b) || r2(r2a)
//
// with b remembering history of the given type
func hierarchyGraph(t *testing.T, history HistoryType) *Graph[string, string, int] {
	t.Helper()
	b := NewBuilder[string, string, int]()
	b.State("root").Sequential("a", "b").Initial("a")
	b.State("b").Sequential("b1", "b2").Initial("b1").History(history)
	b.State("b2").Sequential("x", "y").Initial("x")
	b.State("par").Parallel("r1", "r2")
	b.State("r1").Sequential("r1a", "r1b").Initial("r1a")
	b.State("r2").Sequential("r2a").Initial("r2a")

	b.Transition("a", "b", "go")
	b.Transition("a", "a", "self")
	b.Transition("a", "par", "split")
	b.Transition("a", "r1b", "split_b")
	b.ToFinal("a", "quit")
	b.Transition("b", "x", "deep")
	b.Transition("b", "x", "deep_local").Local()
	b.Transition("b", "a", "leave")
	b.Transition("b", "b", "reset")
	b.Transition("b", "b", "reset_local").Local()
	b.Transition("x", "b", "up")
	b.Transition("x", "b", "up_local").Local()
	b.Internal("b1", "tick")
	b.Initial("a")

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func transitionOf(t *testing.T, g *Graph[string, string, int], from, event string) *Transition[string, string, int] {
	t.Helper()
	found := g.TransitionsFor(from, event)
	require.Len(t, found, 1)
	return found[0]
}

func stateOf(t *testing.T, g *Graph[string, string, int], id string) *State[string, string, int] {
	t.Helper()
	s, ok := g.State(id)
	require.True(t, ok, "state %s", id)
	return s
}

// activate returns a configuration with exactly the given states active
func activate(t *testing.T, g *Graph[string, string, int], ids ...string) *machineData[string, string, int] {
	t.Helper()
	d := newMachineData[string, string, int]()
	for _, id := range ids {
		d = d.entered(stateOf(t, g, id))
	}
	return d
}

func exitIDs(steps []exitStep[string, string, int]) []string {
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = step.state.id
	}
	return out
}

func TestHierarchy_LCA(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)

	testCases := []struct {
		a, b     string
		expected string
	}{
		{"x", "b1", "b"},
		{"x", "a", "root"},
		{"x", "y", "b2"},
		{"x", "x", "x"},
		{"b", "x", "b"},
		{"r1a", "r2a", "par"},
	}
	for _, tc := range testCases {
		l := lca(stateOf(t, g, tc.a), stateOf(t, g, tc.b))
		require.NotNil(t, l, "%s %s", tc.a, tc.b)
		assert.Equal(t, tc.expected, l.id, "%s %s", tc.a, tc.b)
	}

	assert.Nil(t, lca(stateOf(t, g, "x"), stateOf(t, g, "r1a")))
}

func TestHierarchy_Scope(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)

	testCases := []struct {
		name     string
		from     string
		event    string
		expected string
	}{
		{"siblings", "a", "go", "root"},
		{"external to descendant", "b", "deep", "root"},
		{"local to descendant", "b", "deep_local", "b"},
		{"external to ancestor", "x", "up", "root"},
		{"local to ancestor", "x", "up_local", "b"},
		{"external self", "a", "self", "root"},
		{"external self on composite", "b", "reset", "root"},
		{"local self on composite", "b", "reset_local", "b"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := scope(transitionOf(t, g, tc.from, tc.event))
			require.NotNil(t, s)
			assert.Equal(t, tc.expected, s.id)
		})
	}

	assert.Nil(t, scope(transitionOf(t, g, "a", "split")), "different top-level states")
	assert.Nil(t, scope(transitionOf(t, g, "a", "quit")), "final pseudo-state")
}

func TestHierarchy_ExitsArePostOrder(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "x")

	assert.Equal(t, []string{"x", "b2", "b"}, exitIDs(w.exits(d, stateOf(t, g, "root"))))
	assert.Equal(t, []string{"x", "b2", "b", "root"}, exitIDs(w.exits(d, nil)))
	assert.Equal(t, []string{"x"}, exitIDs(w.exits(d, stateOf(t, g, "b2"))))

	d = activate(t, g, "par", "r1", "r1b", "r2", "r2a")
	assert.Equal(t, []string{"r1b", "r1", "r2a", "r2", "par"}, exitIDs(w.exits(d, nil)))
}

func TestHierarchy_ExitsCaptureHistory(t *testing.T) {
	g := hierarchyGraph(t, DeepHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	steps := w.exits(d, stateOf(t, g, "root"))
	require.Len(t, steps, 3)
	last := steps[2]
	assert.Equal(t, "b", last.state.id)
	require.NotNil(t, last.child)
	assert.Equal(t, "b2", last.child.id)
	assert.Equal(t, []string{"y"}, ids(last.leaves))

	// b2 declares no history
	assert.Nil(t, steps[1].child)
	assert.Empty(t, steps[1].leaves)
}

func TestHierarchy_StartEntersInitialPath(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}

	p := w.startPlan(newMachineData[string, string, int]())
	assert.Empty(t, p.exits)
	assert.Equal(t, []string{"root", "a"}, ids(p.entries))
	assert.Equal(t, []string{"root", "a"}, ids(p.apply(newMachineData[string, string, int]()).states()))
}

func TestHierarchy_PlanSiblingEntersInitialChild(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "a")

	p := w.plan(d, transitionOf(t, g, "a", "go"))
	assert.Equal(t, "root", p.scope.id)
	assert.Equal(t, []string{"a"}, exitIDs(p.exits))
	assert.Equal(t, []string{"b", "b1"}, ids(p.entries))
	assert.Equal(t, []string{"root", "b", "b1"}, ids(p.apply(d).states()))
}

func TestHierarchy_PlanExternalSelf(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "a")

	p := w.plan(d, transitionOf(t, g, "a", "self"))
	assert.Equal(t, []string{"a"}, exitIDs(p.exits))
	assert.Equal(t, []string{"a"}, ids(p.entries))
}

func TestHierarchy_PlanLocalKeepsSource(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b1")

	local := w.plan(d, transitionOf(t, g, "b", "deep_local"))
	assert.Equal(t, []string{"b1"}, exitIDs(local.exits))
	assert.Equal(t, []string{"b2", "x"}, ids(local.entries))

	external := w.plan(d, transitionOf(t, g, "b", "deep"))
	assert.Equal(t, []string{"b1", "b"}, exitIDs(external.exits))
	assert.Equal(t, []string{"b", "b2", "x"}, ids(external.entries))
}

func TestHierarchy_PlanInternalTouchesNothing(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b1")

	p := w.plan(d, transitionOf(t, g, "b1", "tick"))
	assert.Equal(t, "b1", p.scope.id)
	assert.Empty(t, p.exits)
	assert.Empty(t, p.entries)
	assert.Equal(t, ids(d.states()), ids(p.apply(d).states()))
}

func TestHierarchy_PlanToFinalExitsEverything(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "a")

	p := w.plan(d, transitionOf(t, g, "a", "quit"))
	assert.Nil(t, p.scope)
	assert.Equal(t, []string{"a", "root"}, exitIDs(p.exits))
	assert.Empty(t, p.entries)

	after := p.apply(d)
	assert.Empty(t, after.states())
	assert.True(t, after.isFinal())
}

func TestHierarchy_DeepHistoryRestoresLeaf(t *testing.T) {
	g := hierarchyGraph(t, DeepHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	d = w.plan(d, transitionOf(t, g, "b", "leave")).apply(d)
	assert.Equal(t, []string{"root", "a"}, ids(d.states()))
	assert.Equal(t, []string{"y"}, d.deepHistory(stateOf(t, g, "b")))

	p := w.plan(d, transitionOf(t, g, "a", "go"))
	assert.Equal(t, []string{"b", "b2", "y"}, ids(p.entries))
}

func TestHierarchy_ShallowHistoryRestoresChild(t *testing.T) {
	g := hierarchyGraph(t, ShallowHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	d = w.plan(d, transitionOf(t, g, "b", "leave")).apply(d)
	child, ok := d.shallowHistory(stateOf(t, g, "b"))
	require.True(t, ok)
	assert.Equal(t, "b2", child)
	assert.Nil(t, d.deepHistory(stateOf(t, g, "b")))

	// b2 keeps no history, so its initial child is entered
	p := w.plan(d, transitionOf(t, g, "a", "go"))
	assert.Equal(t, []string{"b", "b2", "x"}, ids(p.entries))
}

func TestHierarchy_NoHistoryEntersInitialChild(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	d = w.plan(d, transitionOf(t, g, "b", "leave")).apply(d)
	p := w.plan(d, transitionOf(t, g, "a", "go"))
	assert.Equal(t, []string{"b", "b1"}, ids(p.entries))
}

func TestHierarchy_SelfReentryRestoresHistory(t *testing.T) {
	g := hierarchyGraph(t, DeepHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	p := w.plan(d, transitionOf(t, g, "b", "reset"))
	assert.Equal(t, []string{"y", "b2", "b"}, exitIDs(p.exits))
	assert.Equal(t, []string{"b", "b2", "y"}, ids(p.entries))
}

func TestHierarchy_ExplicitTargetOverridesHistory(t *testing.T) {
	g := hierarchyGraph(t, DeepHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "b", "b2", "y")

	p := w.plan(d, transitionOf(t, g, "b", "deep"))
	assert.Equal(t, []string{"b", "b2", "x"}, ids(p.entries))
}

func TestHierarchy_ParallelEntersEveryRegion(t *testing.T) {
	g := hierarchyGraph(t, NoHistory)
	w := walker[string, string, int]{graph: g}
	d := activate(t, g, "root", "a")

	p := w.plan(d, transitionOf(t, g, "a", "split"))
	assert.Equal(t, []string{"a", "root"}, exitIDs(p.exits))
	assert.Equal(t, []string{"par", "r1", "r1a", "r2", "r2a"}, ids(p.entries))

	after := p.apply(d)
	assert.Equal(t, []string{"r1a", "r2a"}, ids(after.leaves()))
	current, ok := after.current()
	require.True(t, ok)
	assert.Equal(t, "par", current.id)

	p = w.plan(d, transitionOf(t, g, "a", "split_b"))
	assert.Equal(t, []string{"par", "r1", "r1b", "r2", "r2a"}, ids(p.entries))
}
