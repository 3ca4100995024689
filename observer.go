package statewise

import "context"

// Observer represents an entity that observes state machine lifecycle
type Observer[S, E comparable, C any] interface {
	// Required methods

	// OnTransitionComplete is called once a transition entered its target
	OnTransitionComplete(n Notification[S, E, C])

	// OnTransitionException is called when a guard or an action failed
	OnTransitionException(n Notification[S, E, C])
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver[S, E comparable, C any] interface {
	Observer[S, E, C]

	// OnStart is called when the machine has entered its initial configuration
	OnStart(n Notification[S, E, C])

	// OnTerminate is called when the machine has exited every state
	OnTerminate(n Notification[S, E, C])

	// OnBeforeTransitionBegin is called before an event is resolved
	OnBeforeTransitionBegin(n Notification[S, E, C])

	// OnTransitionBegin is called when a transition was selected
	OnTransitionBegin(n Notification[S, E, C])

	// OnTransitionDeclined is called when no transition accepted the event
	OnTransitionDeclined(n Notification[S, E, C])

	// OnAfterTransitionEnd is called last for every fired event
	OnAfterTransitionEnd(n Notification[S, E, C])
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver[S, E comparable, C any] struct{}

func (o *BaseObserver[S, E, C]) OnTransitionComplete(n Notification[S, E, C])    {}
func (o *BaseObserver[S, E, C]) OnTransitionException(n Notification[S, E, C])   {}
func (o *BaseObserver[S, E, C]) OnStart(n Notification[S, E, C])                 {}
func (o *BaseObserver[S, E, C]) OnTerminate(n Notification[S, E, C])             {}
func (o *BaseObserver[S, E, C]) OnBeforeTransitionBegin(n Notification[S, E, C]) {}
func (o *BaseObserver[S, E, C]) OnTransitionBegin(n Notification[S, E, C])       {}
func (o *BaseObserver[S, E, C]) OnTransitionDeclined(n Notification[S, E, C])    {}
func (o *BaseObserver[S, E, C]) OnAfterTransitionEnd(n Notification[S, E, C])    {}

// AddObserver registers the observer's methods as listeners. Methods of
// ExtendedObserver are only registered when the observer implements it.
// The returned handles remove the observer again.
func (m *Machine[S, E, C]) AddObserver(observer Observer[S, E, C], opts ...ListenerOption) []ListenerHandle {
	adapt := func(fn func(Notification[S, E, C])) Listener[S, E, C] {
		return func(_ context.Context, n Notification[S, E, C]) { fn(n) }
	}

	handles := []ListenerHandle{
		m.AddListener(TransitionComplete, adapt(observer.OnTransitionComplete), opts...),
		m.AddListener(TransitionException, adapt(observer.OnTransitionException), opts...),
	}
	ext, ok := observer.(ExtendedObserver[S, E, C])
	if !ok {
		return handles
	}
	return append(handles,
		m.AddListener(Start, adapt(ext.OnStart), opts...),
		m.AddListener(Terminate, adapt(ext.OnTerminate), opts...),
		m.AddListener(BeforeTransitionBegin, adapt(ext.OnBeforeTransitionBegin), opts...),
		m.AddListener(TransitionBegin, adapt(ext.OnTransitionBegin), opts...),
		m.AddListener(TransitionDeclined, adapt(ext.OnTransitionDeclined), opts...),
		m.AddListener(AfterTransitionEnd, adapt(ext.OnAfterTransitionEnd), opts...),
	)
}

// RemoveObserver removes every registration returned by AddObserver
func (m *Machine[S, E, C]) RemoveObserver(handles []ListenerHandle) {
	for _, h := range handles {
		m.RemoveListener(h)
	}
}
