package statewise

import (
	"reflect"
	"runtime"
	"strings"
	"time"
)

// Action runs on state entry, state exit or as part of a transition
type Action[S, E comparable, C any] interface {
	Execute(ctx *ActionContext[S, E, C]) error
	Name() string
	IsAsync() bool
	Timeout() time.Duration
}

// ActionFunc performs an operation during state transitions
type ActionFunc[S, E comparable, C any] func(ctx *ActionContext[S, E, C]) error

// ActionOption configures an action created from a function
type ActionOption func(*actionSpec)

type actionSpec struct {
	name    string
	async   bool
	timeout time.Duration
}

// Async marks the action as asynchronous. Asynchronous actions of one
// protocol step run in parallel on the executor and are joined before the
// next step starts.
func Async() ActionOption {
	return func(s *actionSpec) { s.async = true }
}

// WithTimeout bounds how long an asynchronous action may run. It has no
// effect on synchronous actions, which always run to completion.
func WithTimeout(timeout time.Duration) ActionOption {
	return func(s *actionSpec) { s.timeout = timeout }
}

// Named overrides the name derived from the function
func Named(name string) ActionOption {
	return func(s *actionSpec) { s.name = name }
}

type funcAction[S, E comparable, C any] struct {
	fn   ActionFunc[S, E, C]
	spec actionSpec
}

// NewAction wraps fn into an Action
func NewAction[S, E comparable, C any](fn ActionFunc[S, E, C], opts ...ActionOption) Action[S, E, C] {
	spec := actionSpec{}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.name == "" {
		spec.name = funcName(fn)
	}
	return &funcAction[S, E, C]{fn: fn, spec: spec}
}

func (a *funcAction[S, E, C]) Execute(ctx *ActionContext[S, E, C]) error {
	return a.fn(ctx)
}

func (a *funcAction[S, E, C]) Name() string           { return a.spec.name }
func (a *funcAction[S, E, C]) IsAsync() bool          { return a.spec.async }
func (a *funcAction[S, E, C]) Timeout() time.Duration { return a.spec.timeout }

// Condition gates whether a candidate transition is eligible. Conditions are
// evaluated synchronously on the firing goroutine and should not have side
// effects.
type Condition[C any] interface {
	IsSatisfied(payload C) bool
	Name() string
}

// GuardFunc evaluates whether a transition should be taken
type GuardFunc[C any] func(payload C) bool

// IsSatisfied implements Condition
func (g GuardFunc[C]) IsSatisfied(payload C) bool {
	return g(payload)
}

// Name implements Condition
func (g GuardFunc[C]) Name() string {
	return funcName(g)
}

type namedCondition[C any] struct {
	name string
	fn   func(C) bool
}

func (c namedCondition[C]) IsSatisfied(payload C) bool { return c.fn(payload) }
func (c namedCondition[C]) Name() string               { return c.name }

// NamedCondition creates a condition with an explicit identity. Two
// transitions are only considered duplicates when their condition names
// match, so closures created in a loop should be named.
func NamedCondition[C any](name string, fn func(C) bool) Condition[C] {
	return namedCondition[C]{name: name, fn: fn}
}

const alwaysName = "Always"

// Always returns the condition used by transitions declared without a guard
func Always[C any]() Condition[C] {
	return namedCondition[C]{name: alwaysName, fn: func(C) bool { return true }}
}

// Not negates a condition
func Not[C any](cond Condition[C]) Condition[C] {
	return namedCondition[C]{
		name: "!" + cond.Name(),
		fn:   func(payload C) bool { return !cond.IsSatisfied(payload) },
	}
}

func funcName(fn any) string {
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func || value.IsNil() {
		return ""
	}
	name := runtime.FuncForPC(value.Pointer()).Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
