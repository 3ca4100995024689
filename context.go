package statewise

import (
	"context"
	"sync/atomic"
)

// ActionContext is handed to every action. It carries the transition being
// applied and a reentrancy frame: firing through it, or through any context
// derived from it, queues the event instead of waiting for the machine.
type ActionContext[S, E comparable, C any] struct {
	context.Context

	machine      *Machine[S, E, C]
	transitionID string
	from         S
	to           S
	hasTo        bool
	event        E
	hasEvent     bool
	payload      C
}

// Machine returns the machine applying the transition
func (ctx *ActionContext[S, E, C]) Machine() *Machine[S, E, C] {
	return ctx.machine
}

// TransitionID returns the correlation id of the current fire
func (ctx *ActionContext[S, E, C]) TransitionID() string {
	return ctx.transitionID
}

// From returns the source state of the transition
func (ctx *ActionContext[S, E, C]) From() S {
	return ctx.from
}

// To returns the target state. It reports false for transitions to the
// Final pseudo-state and for start/terminate.
func (ctx *ActionContext[S, E, C]) To() (S, bool) {
	return ctx.to, ctx.hasTo
}

// Event returns the triggering event. It reports false during Start and
// Terminate.
func (ctx *ActionContext[S, E, C]) Event() (E, bool) {
	return ctx.event, ctx.hasEvent
}

// Payload returns the value passed to Fire, Start or Terminate
func (ctx *ActionContext[S, E, C]) Payload() C {
	return ctx.payload
}

// Fire queues event on the same machine. It is applied after the current
// transition completes.
func (ctx *ActionContext[S, E, C]) Fire(event E, payload C) (*FireResult[S], error) {
	return ctx.machine.Fire(ctx, event, payload)
}

// withContext returns a shallow copy bound to a different context.Context,
// used to hand asynchronous actions their own deadline.
func (ctx *ActionContext[S, E, C]) withContext(parent context.Context) *ActionContext[S, E, C] {
	clone := *ctx
	clone.Context = parent
	return &clone
}

type frameKey struct{}

// frame marks a context as belonging to a transition in progress. Frames
// chain so that a machine reached through another machine's action still
// recognises its own transition further up the call stack.
type frame struct {
	owner  any
	parent *frame
	live   atomic.Bool
}

func withFrame(parent context.Context, owner any) (context.Context, *frame) {
	f := &frame{owner: owner}
	f.parent, _ = parent.Value(frameKey{}).(*frame)
	f.live.Store(true)
	return context.WithValue(parent, frameKey{}, f), f
}

// liveFrame returns the innermost live frame of owner carried by ctx, or
// nil when ctx was not issued by one of owner's transitions
func liveFrame(ctx context.Context, owner any) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	for ; f != nil; f = f.parent {
		if f.owner == owner && f.live.Load() {
			return f
		}
	}
	return nil
}
