// Package statewise provides a hierarchical state machine engine for Go
// with composite and parallel states, shallow and deep history, guarded and
// prioritised transitions, and safe concurrent and reentrant firing.
//
// A Graph is built once with a Builder and shared by every Machine created
// from it:
//
//	b := statewise.NewBuilder[string, string, int]()
//	b.State("idle")
//	b.State("running").OnEntry(startMotor)
//	b.Transition("idle", "running", "start").When(func(speed int) bool { return speed > 0 })
//	b.Initial("idle")
//	graph, err := b.Build()
//
//	m := graph.CreateInstance(statewise.WithLogger(logger))
//	_ = m.Start(ctx, 0)
//	res, err := m.Fire(ctx, "start", 10)
//
// Transitions are not transactional. When an action fails, the states
// exited and entered up to that point stay exited and entered, and the
// returned TransitionError reports the last completed Stage.
package statewise
