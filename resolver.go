package statewise

import (
	"cmp"
	"slices"
)

// resolver selects the transitions an event triggers in a configuration.
//
// Resolution starts at the innermost active states and walks outwards. The
// first level declaring the event decides: its candidates are tried by
// descending priority, declaration order breaking ties, and the first
// satisfied guard wins. With ShadowByGuard a level whose guards all fail
// lets its ancestors try instead.
//
// Parallel regions resolve independently. When any region selects a
// transition, every selection is returned in region order and the parallel
// state's own level is not consulted.
type resolver[S, E comparable, C any] struct {
	policy ResolutionPolicy
}

// resolve returns the transitions event triggers, or none when it is
// declined. A guard that panics aborts resolution with a TransitionError.
func (r resolver[S, E, C]) resolve(d *machineData[S, E, C], event E, payload C) ([]*Transition[S, E, C], error) {
	if d.isFinal() {
		return nil, nil
	}
	top := d.top()
	if top == nil {
		return nil, nil
	}
	found, _, err := r.resolveIn(d, top, event, payload)
	return found, err
}

// resolveIn resolves below and at node. claimed reports whether a level
// consumed the event without selecting a transition.
func (r resolver[S, E, C]) resolveIn(d *machineData[S, E, C], node *State[S, E, C], event E, payload C) (found []*Transition[S, E, C], claimed bool, err error) {
	if node.IsParallel() {
		for _, region := range node.children {
			if !d.isActive(region) {
				continue
			}
			f, c, err := r.resolveIn(d, region, event, payload)
			if err != nil {
				return nil, true, err
			}
			found = append(found, f...)
			claimed = claimed || c
		}
		if len(found) > 0 || claimed {
			return found, true, nil
		}
	} else if child := d.activeChild(node); child != nil {
		f, c, err := r.resolveIn(d, child, event, payload)
		if err != nil || len(f) > 0 || c {
			return f, true, err
		}
	}

	candidates := node.byEvent[event]
	if len(candidates) == 0 {
		return nil, false, nil
	}
	t, err := r.choose(candidates, payload)
	if err != nil {
		return nil, true, NewTransitionError(node.id, targetOf(t), event, payload, StageInitialized, err)
	}
	if t != nil {
		return []*Transition[S, E, C]{t}, true, nil
	}
	return nil, r.policy == ShadowByDeclaration, nil
}

// completion returns the completion transition of the innermost active
// parallel state whose regions have all reached a final state
func (r resolver[S, E, C]) completion(d *machineData[S, E, C], payload C) (*Transition[S, E, C], error) {
	active := d.states()
	for i := len(active) - 1; i >= 0; i-- {
		p := active[i]
		if !p.IsParallel() || len(p.completion) == 0 || !completed(d, p) {
			continue
		}
		t, err := r.choose(p.completion, payload)
		if err != nil {
			return nil, NewTransitionError(p.id, targetOf(t), nil, payload, StageInitialized, err)
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

// completed reports whether every region of p rests in a final state
func completed[S, E comparable, C any](d *machineData[S, E, C], p *State[S, E, C]) bool {
	for _, region := range p.children {
		leaves := d.leavesUnder(region)
		if len(leaves) == 0 {
			return false
		}
		for _, leaf := range leaves {
			if !leaf.final {
				return false
			}
		}
	}
	return true
}

// choose returns the highest priority candidate whose guard holds. On a
// guard failure the offending candidate is returned with the error.
func (r resolver[S, E, C]) choose(candidates []*Transition[S, E, C], payload C) (*Transition[S, E, C], error) {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b *Transition[S, E, C]) int {
		return cmp.Compare(b.priority, a.priority)
	})
	for _, t := range ordered {
		ok, err := satisfied(t.condition, payload)
		if err != nil {
			return t, err
		}
		if ok {
			return t, nil
		}
	}
	return nil, nil
}

func satisfied[C any](cond Condition[C], payload C) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered("guard "+cond.Name(), r)
		}
	}()
	return cond.IsSatisfied(payload), nil
}

func targetOf[S, E comparable, C any](t *Transition[S, E, C]) any {
	if t == nil || t.target == nil {
		return nil
	}
	return t.target.id
}
