package statewise

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	testBuilder = Builder[string, string, int]
	testMachine = Machine[string, string, int]
	testCtx     = ActionContext[string, string, int]
	testNote    = Notification[string, string, int]
)

// TestObserver is a mock observer for testing that records every notification
type TestObserver struct {
	BaseObserver[string, string, int]

	mutex         sync.RWMutex
	Notifications []testNote
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) record(n testNote) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Notifications = append(o.Notifications, n)
}

func (o *TestObserver) OnStart(n testNote)                 { o.record(n) }
func (o *TestObserver) OnTerminate(n testNote)             { o.record(n) }
func (o *TestObserver) OnBeforeTransitionBegin(n testNote) { o.record(n) }
func (o *TestObserver) OnTransitionBegin(n testNote)       { o.record(n) }
func (o *TestObserver) OnTransitionComplete(n testNote)    { o.record(n) }
func (o *TestObserver) OnTransitionDeclined(n testNote)    { o.record(n) }
func (o *TestObserver) OnTransitionException(n testNote)   { o.record(n) }
func (o *TestObserver) OnAfterTransitionEnd(n testNote)    { o.record(n) }

// Points returns the recorded lifecycle points in order
func (o *TestObserver) Points() []ListenerPoint {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	points := make([]ListenerPoint, len(o.Notifications))
	for i, n := range o.Notifications {
		points[i] = n.Point
	}
	return points
}

// Count returns how many notifications were recorded for point
func (o *TestObserver) Count(point ListenerPoint) int {
	count := 0
	for _, p := range o.Points() {
		if p == point {
			count++
		}
	}
	return count
}

// Last returns the last notification recorded for point
func (o *TestObserver) Last(point ListenerPoint) (testNote, bool) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	for i := len(o.Notifications) - 1; i >= 0; i-- {
		if o.Notifications[i].Point == point {
			return o.Notifications[i], true
		}
	}
	return testNote{}, false
}

func (o *TestObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Notifications = nil
}

// recorder keeps an ordered log of executed actions
type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
}

// action returns an action recording label
func (r *recorder) action(label string) ActionFunc[string, string, int] {
	return func(*testCtx) error {
		r.add(label)
		return nil
	}
}

// track records entry and exit of every listed state
func (r *recorder) track(b *testBuilder, states ...string) {
	for _, s := range states {
		b.State(s).OnEntry(r.action("enter "+s)).OnExit(r.action("exit " + s))
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestMachine builds b and creates a machine logging nowhere
func newTestMachine(t *testing.T, b *testBuilder, opts ...Option) *testMachine {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return g.CreateInstance(opts...)
}

// startTestMachine builds b, creates a machine and starts it
func startTestMachine(t *testing.T, b *testBuilder, opts ...Option) *testMachine {
	t.Helper()
	m := newTestMachine(t, b, opts...)
	require.NoError(t, m.Start(context.Background(), 0))
	return m
}

func fire(t *testing.T, m *testMachine, event string, payload int) *FireResult[string] {
	t.Helper()
	res, err := m.Fire(context.Background(), event, payload)
	require.NoError(t, err)
	return res
}

// AssertState checks the machine's current state
func AssertState(t *testing.T, m *testMachine, expected string) {
	t.Helper()
	current, ok := m.CurrentState()
	require.True(t, ok, "machine has no current state")
	assert.Equal(t, expected, current)
}

// Test machine builders - common machine configurations for testing

// CreateSimpleBuilder creates an idle -> running -> stopped cycle
func CreateSimpleBuilder() *testBuilder {
	b := NewBuilder[string, string, int]()
	b.State("idle")
	b.State("running")
	b.State("stopped")
	b.Transition("idle", "running", "start")
	b.Transition("running", "stopped", "stop")
	b.Transition("stopped", "idle", "reset")
	b.Initial("idle")
	return b
}

// CreateATMBuilder creates the five state ATM used across the tests,
// recording entry and exit of every state
func CreateATMBuilder(rec *recorder) *testBuilder {
	b := NewBuilder[string, string, int]()
	rec.track(b, "Idle", "Loading", "OutOfService", "Disconnected", "InService")
	b.Transition("Idle", "Loading", "Connected")
	b.Transition("Loading", "InService", "LoadSuccess")
	b.Transition("Loading", "OutOfService", "LoadFail")
	b.Transition("Loading", "Disconnected", "ConnectionLost")
	b.Transition("InService", "OutOfService", "Shutdown")
	b.Transition("InService", "Disconnected", "ConnectionLost")
	b.Transition("OutOfService", "InService", "Startup")
	b.Transition("OutOfService", "Disconnected", "ConnectionLost")
	b.Transition("Disconnected", "InService", "ConnectionRestored")
	b.Initial("Idle")
	return b
}

// CreateParallelBuilder creates a parallel state with two regions that
// complete into done
func CreateParallelBuilder(rec *recorder) *testBuilder {
	b := NewBuilder[string, string, int]()
	rec.track(b, "inactive", "active", "motor", "stopped", "running", "lights", "off", "on", "done")
	b.State("active").Parallel("motor", "lights")
	b.State("motor").Sequential("stopped", "running").Initial("stopped")
	b.State("lights").Sequential("off", "on").Initial("off")
	b.State("running").Final()
	b.State("on").Final()
	b.Transition("inactive", "active", "activate")
	b.Transition("stopped", "running", "start_motor")
	b.Transition("off", "on", "turn_on_lights")
	b.Transition("active", "inactive", "deactivate")
	b.OnCompletion("active", "done")
	b.Initial("inactive")
	return b
}
