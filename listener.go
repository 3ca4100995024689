package statewise

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/immutable"
)

// ListenerPoint is a lifecycle point listeners can subscribe to
type ListenerPoint int

const (
	// Start fires once the initial configuration is entered
	Start ListenerPoint = iota
	// Terminate fires once every state has been exited
	Terminate
	// BeforeTransitionBegin fires before an event is resolved
	BeforeTransitionBegin
	// TransitionBegin fires once a transition was selected
	TransitionBegin
	// TransitionComplete fires after the target configuration is entered
	TransitionComplete
	// TransitionDeclined fires when no transition accepts the event
	TransitionDeclined
	// TransitionException fires when a guard or an action fails
	TransitionException
	// AfterTransitionEnd fires last for every fired event, declined or not
	AfterTransitionEnd

	pointCount
)

func (p ListenerPoint) String() string {
	switch p {
	case Start:
		return "start"
	case Terminate:
		return "terminate"
	case BeforeTransitionBegin:
		return "before-transition-begin"
	case TransitionBegin:
		return "transition-begin"
	case TransitionComplete:
		return "transition-complete"
	case TransitionDeclined:
		return "transition-declined"
	case TransitionException:
		return "transition-exception"
	case AfterTransitionEnd:
		return "after-transition-end"
	default:
		return fmt.Sprintf("ListenerPoint(%d)", int(p))
	}
}

// Notification describes a lifecycle point reached by a machine
type Notification[S, E comparable, C any] struct {
	Point        ListenerPoint
	Machine      *Machine[S, E, C]
	TransitionID string

	From      S
	To        S
	HasTarget bool
	Event     E
	HasEvent  bool
	Payload   C

	// Err and Stage are set for TransitionException and for
	// AfterTransitionEnd following a failure
	Err   error
	Stage Stage

	// Elapsed is set for TransitionComplete and AfterTransitionEnd
	Elapsed time.Duration

	// Data is the machine configuration when the notification was issued
	Data *SavedData[S, E, C]
}

// Listener receives notifications. ctx carries the firing transition, so a
// synchronous listener may fire events that are applied once the current
// transition completes.
type Listener[S, E comparable, C any] func(ctx context.Context, n Notification[S, E, C])

// ListenerOption configures a listener registration
type ListenerOption func(*listenerSpec)

type listenerSpec struct {
	order   int
	async   bool
	timeout time.Duration
	name    string
}

// Order sets the dispatch order. Lower values run first; equal values run
// in registration order.
func Order(order int) ListenerOption {
	return func(s *listenerSpec) { s.order = order }
}

// AsyncListener dispatches the listener on the listener executor after
// every synchronous listener of the same point has run
func AsyncListener() ListenerOption {
	return func(s *listenerSpec) { s.async = true }
}

// ListenerTimeout bounds how long an asynchronous listener may run
func ListenerTimeout(timeout time.Duration) ListenerOption {
	return func(s *listenerSpec) { s.timeout = timeout }
}

// ListenerName names the listener in logs
func ListenerName(name string) ListenerOption {
	return func(s *listenerSpec) { s.name = name }
}

// ListenerHandle identifies a registration for RemoveListener
type ListenerHandle struct {
	point ListenerPoint
	key   listenerKey
}

// Point returns the lifecycle point the listener is registered for
func (h ListenerHandle) Point() ListenerPoint {
	return h.point
}

type listenerKey struct {
	order int
	seq   uint64
}

type listenerKeyComparer struct{}

func (listenerKeyComparer) Compare(a, b listenerKey) int {
	switch {
	case a.order < b.order:
		return -1
	case a.order > b.order:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

type listenerEntry[S, E comparable, C any] struct {
	fn   Listener[S, E, C]
	spec listenerSpec
}

// listenerRegistry keeps one sorted list per point. Writers replace a list
// under mu; dispatch loads the current list and iterates it without locking,
// so registrations made during a dispatch apply to later ones.
type listenerRegistry[S, E comparable, C any] struct {
	mu     sync.Mutex
	seq    uint64
	points [pointCount]atomic.Pointer[immutable.SortedMap[listenerKey, *listenerEntry[S, E, C]]]
}

func (r *listenerRegistry[S, E, C]) add(point ListenerPoint, fn Listener[S, E, C], opts ...ListenerOption) ListenerHandle {
	spec := listenerSpec{}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.name == "" {
		spec.name = funcName(fn)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	key := listenerKey{order: spec.order, seq: r.seq}
	list := r.points[point].Load()
	if list == nil {
		list = immutable.NewSortedMap[listenerKey, *listenerEntry[S, E, C]](listenerKeyComparer{})
	}
	r.points[point].Store(list.Set(key, &listenerEntry[S, E, C]{fn: fn, spec: spec}))
	return ListenerHandle{point: point, key: key}
}

func (r *listenerRegistry[S, E, C]) remove(h ListenerHandle) bool {
	if h.point < 0 || h.point >= pointCount {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.points[h.point].Load()
	if list == nil {
		return false
	}
	if _, ok := list.Get(h.key); !ok {
		return false
	}
	r.points[h.point].Store(list.Delete(h.key))
	return true
}

func (r *listenerRegistry[S, E, C]) snapshot(point ListenerPoint) *immutable.SortedMap[listenerKey, *listenerEntry[S, E, C]] {
	return r.points[point].Load()
}

func (r *listenerRegistry[S, E, C]) count(point ListenerPoint) int {
	list := r.snapshot(point)
	if list == nil {
		return 0
	}
	return list.Len()
}

// AddListener registers fn for a lifecycle point
func (m *Machine[S, E, C]) AddListener(point ListenerPoint, fn Listener[S, E, C], opts ...ListenerOption) ListenerHandle {
	return m.listeners.add(point, fn, opts...)
}

// RemoveListener unregisters a listener. It reports whether the listener
// was registered.
func (m *Machine[S, E, C]) RemoveListener(h ListenerHandle) bool {
	return m.listeners.remove(h)
}

// ListenerCount returns the number of listeners registered for point
func (m *Machine[S, E, C]) ListenerCount(point ListenerPoint) int {
	return m.listeners.count(point)
}

// notify dispatches n to the snapshot of listeners registered for its point.
// Synchronous listeners run in order first; asynchronous ones are then
// submitted to the listener executor.
func (m *Machine[S, E, C]) notify(ctx context.Context, n Notification[S, E, C]) {
	list := m.listeners.snapshot(n.Point)
	if list == nil || list.Len() == 0 {
		return
	}
	n.Machine = m
	if n.Data == nil {
		n.Data = m.DumpSavedData()
	}

	var async []*listenerEntry[S, E, C]
	itr := list.Iterator()
	for !itr.Done() {
		_, entry, _ := itr.Next()
		if entry.spec.async {
			async = append(async, entry)
			continue
		}
		m.callListener(ctx, entry, n)
	}

	for _, entry := range async {
		entry := entry
		m.listenerExecutor.Submit(ctx, Task{
			Name:    entry.spec.name,
			Async:   true,
			Timeout: entry.spec.timeout,
			Run: func(ctx context.Context) error {
				entry.fn(ctx, n)
				return nil
			},
		})
	}
}

func (m *Machine[S, E, C]) callListener(ctx context.Context, entry *listenerEntry[S, E, C], n Notification[S, E, C]) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithError(recovered("listener "+entry.spec.name, r)).
				WithField("point", n.Point.String()).
				Error("listener panicked")
		}
	}()
	entry.fn(ctx, n)
}
