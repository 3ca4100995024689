package statewise

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_DispatchOrder(t *testing.T) {
	rec := &recorder{}
	m := startTestMachine(t, CreateSimpleBuilder())

	listen := func(label string) Listener[string, string, int] {
		return func(context.Context, testNote) { rec.add(label) }
	}
	m.AddListener(TransitionComplete, listen("late-1"), Order(10))
	m.AddListener(TransitionComplete, listen("early"), Order(-1))
	m.AddListener(TransitionComplete, listen("late-2"), Order(10))
	m.AddListener(TransitionComplete, listen("default"))

	fire(t, m, "start", 0)
	assert.Equal(t, []string{"early", "default", "late-1", "late-2"}, rec.entries())
	assert.Equal(t, 4, m.ListenerCount(TransitionComplete))
	assert.Equal(t, 0, m.ListenerCount(TransitionDeclined))
}

func TestListener_AsyncRunsAfterSync(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder(), WithListenerExecutor(NewExecutor(1, quietLogger())))

	var syncDone atomic.Bool
	observed := make(chan bool, 1)
	m.AddListener(TransitionComplete, func(context.Context, testNote) {
		observed <- syncDone.Load()
	}, AsyncListener(), Order(-100), ListenerName("async"))
	m.AddListener(TransitionComplete, func(context.Context, testNote) {
		syncDone.Store(true)
	})

	fire(t, m, "start", 0)
	select {
	case seen := <-observed:
		assert.True(t, seen)
	case <-time.After(5 * time.Second):
		t.Fatal("asynchronous listener never ran")
	}
}

func TestListener_AsyncListenerCanFire(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder(), WithListenerExecutor(NewExecutor(1, quietLogger())))

	done := make(chan error, 1)
	m.AddListener(TransitionComplete, func(ctx context.Context, n testNote) {
		if n.To != "running" {
			return
		}
		_, err := m.Fire(ctx, "stop", 0)
		done <- err
	}, AsyncListener())

	fire(t, m, "start", 0)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("asynchronous listener deadlocked")
	}
	AssertState(t, m, "stopped")
}

func TestListener_RegistrationDuringDispatchAppliesLater(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder())

	var added atomic.Int32
	var self ListenerHandle
	self = m.AddListener(TransitionComplete, func(context.Context, testNote) {
		m.AddListener(TransitionComplete, func(context.Context, testNote) {
			added.Add(1)
		})
		m.RemoveListener(self)
	})

	fire(t, m, "start", 0)
	assert.Equal(t, int32(0), added.Load())
	assert.Equal(t, 1, m.ListenerCount(TransitionComplete))

	fire(t, m, "stop", 0)
	assert.Equal(t, int32(1), added.Load())
}

func TestListener_Remove(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder())

	var calls atomic.Int32
	h := m.AddListener(TransitionComplete, func(context.Context, testNote) { calls.Add(1) })
	assert.Equal(t, TransitionComplete, h.Point())

	assert.True(t, m.RemoveListener(h))
	assert.False(t, m.RemoveListener(h))
	assert.False(t, m.RemoveListener(ListenerHandle{point: pointCount}))

	fire(t, m, "start", 0)
	assert.Equal(t, int32(0), calls.Load())
}

func TestListener_PanicIsContained(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder())

	var after atomic.Int32
	m.AddListener(TransitionComplete, func(context.Context, testNote) { panic("listener bug") }, ListenerName("buggy"))
	m.AddListener(TransitionComplete, func(context.Context, testNote) { after.Add(1) })

	res, err := m.Fire(context.Background(), "start", 0)
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, int32(1), after.Load())
	AssertState(t, m, "running")
}

func TestListener_Sequences(t *testing.T) {
	rec := &recorder{}
	m := newTestMachine(t, CreateParallelBuilder(rec))
	observer := NewTestObserver()
	m.AddObserver(observer)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, 0))
	assert.Equal(t, []ListenerPoint{Start}, observer.Points())

	observer.Reset()
	fire(t, m, "activate", 0)
	assert.Equal(t, []ListenerPoint{BeforeTransitionBegin, TransitionBegin, TransitionComplete, AfterTransitionEnd}, observer.Points())

	observer.Reset()
	fire(t, m, "unknown", 0)
	assert.Equal(t, []ListenerPoint{BeforeTransitionBegin, TransitionDeclined, AfterTransitionEnd}, observer.Points())

	fire(t, m, "start_motor", 0)
	observer.Reset()
	fire(t, m, "turn_on_lights", 0)
	assert.Equal(t, []ListenerPoint{
		BeforeTransitionBegin,
		TransitionBegin, TransitionComplete,
		TransitionBegin, TransitionComplete,
		AfterTransitionEnd,
	}, observer.Points())

	observer.Reset()
	require.NoError(t, m.Terminate(ctx, 0))
	assert.Equal(t, []ListenerPoint{Terminate}, observer.Points())
}

func TestListener_NotificationContents(t *testing.T) {
	rec := &recorder{}
	m := startTestMachine(t, CreateATMBuilder(rec))
	observer := NewTestObserver()
	m.AddObserver(observer)

	res := fire(t, m, "Connected", 9)

	begin, ok := observer.Last(TransitionBegin)
	require.True(t, ok)
	assert.Same(t, m, begin.Machine)
	assert.Equal(t, res.TransitionID, begin.TransitionID)
	assert.Equal(t, "Idle", begin.From)
	assert.Equal(t, "Loading", begin.To)
	assert.True(t, begin.HasTarget)
	assert.Equal(t, "Connected", begin.Event)
	assert.True(t, begin.HasEvent)
	assert.Equal(t, 9, begin.Payload)
	current, _ := begin.Data.CurrentState()
	assert.Equal(t, "Idle", current)

	complete, ok := observer.Last(TransitionComplete)
	require.True(t, ok)
	assert.Equal(t, StageFinalized, complete.Stage)
	assert.NoError(t, complete.Err)
	current, _ = complete.Data.CurrentState()
	assert.Equal(t, "Loading", current)

	after, ok := observer.Last(AfterTransitionEnd)
	require.True(t, ok)
	assert.Equal(t, res.TransitionID, after.TransitionID)
	assert.Equal(t, "Loading", after.To)
	assert.Equal(t, StageFinalized, after.Stage)
	assert.Greater(t, after.Elapsed, time.Duration(0))

	for _, n := range observer.Notifications {
		assert.Equal(t, res.TransitionID, n.TransitionID)
	}
}

type completionCounter struct {
	completed atomic.Int32
	failed    atomic.Int32
}

func (c *completionCounter) OnTransitionComplete(testNote)  { c.completed.Add(1) }
func (c *completionCounter) OnTransitionException(testNote) { c.failed.Add(1) }

func TestListener_PlainObserver(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder())
	counter := &completionCounter{}

	handles := m.AddObserver(counter)
	assert.Len(t, handles, 2)

	fire(t, m, "start", 0)
	fire(t, m, "nothing", 0)
	assert.Equal(t, int32(1), counter.completed.Load())
	assert.Equal(t, int32(0), counter.failed.Load())

	m.RemoveObserver(handles)
	assert.Equal(t, 0, m.ListenerCount(TransitionComplete))
	fire(t, m, "stop", 0)
	assert.Equal(t, int32(1), counter.completed.Load())
}

func TestListener_ExtendedObserverRegistersEveryPoint(t *testing.T) {
	m := newTestMachine(t, CreateSimpleBuilder())
	handles := m.AddObserver(NewTestObserver())
	assert.Len(t, handles, int(pointCount))
	for p := ListenerPoint(0); p < pointCount; p++ {
		assert.Equal(t, 1, m.ListenerCount(p), p.String())
	}
}

func TestListenerPoint_String(t *testing.T) {
	assert.Equal(t, "transition-declined", TransitionDeclined.String())
	assert.Equal(t, "after-transition-end", AfterTransitionEnd.String())
	assert.Equal(t, "ListenerPoint(42)", ListenerPoint(42).String())
}

func TestListener_MachineReadsMatchNotification(t *testing.T) {
	m := startTestMachine(t, CreateSimpleBuilder())

	seen := make(chan string, 1)
	m.AddListener(TransitionComplete, func(_ context.Context, n testNote) {
		current, _ := n.Machine.CurrentState()
		seen <- current
	})

	fire(t, m, "start", 0)
	assert.Equal(t, "running", <-seen)
}

func TestListener_ExceptionSeesPartiallyAppliedTransition(t *testing.T) {
	b := NewBuilder[string, string, int]()
	b.State("a")
	b.State("b").OnEntry(func(*testCtx) error { return errors.New("cannot enter") })
	b.Transition("a", "b", "go")
	b.Initial("a")
	m := startTestMachine(t, b)

	var fromMachine, fromNote []string
	m.AddListener(TransitionException, func(_ context.Context, n testNote) {
		fromMachine = n.Machine.ActiveStates()
		fromNote = n.Data.ActiveStates()
	})

	_, err := m.Fire(context.Background(), "go", 0)
	require.Error(t, err)
	assert.Empty(t, fromMachine)
	assert.Equal(t, fromNote, fromMachine)
	assert.Equal(t, m.ActiveStates(), fromMachine)
}
