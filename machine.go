package statewise

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Option configures a machine
type Option func(*options)

type options struct {
	id               string
	executor         *Executor
	listenerExecutor *Executor
	logger           logrus.FieldLogger
	maxQueued        int
	actionTimeout    time.Duration
	policy           ResolutionPolicy
	verbose          bool
	timing           bool
}

// WithExecutor runs actions on executor instead of the process-wide one
func WithExecutor(executor *Executor) Option {
	return func(o *options) { o.executor = executor }
}

// WithListenerExecutor runs asynchronous listeners on executor
func WithListenerExecutor(executor *Executor) Option {
	return func(o *options) { o.listenerExecutor = executor }
}

// WithLogger sets the logger. The machine adds its own fields.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMaxQueuedEvents bounds the events fired from within a transition
func WithMaxQueuedEvents(n int) Option {
	return func(o *options) { o.maxQueued = n }
}

// WithResolutionPolicy selects how guards at one level shadow ancestors
func WithResolutionPolicy(policy ResolutionPolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithID overrides the generated machine id
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

type queuedEvent[E comparable, C any] struct {
	event   E
	payload C
}

// Machine is a running instance of a Graph.
//
// At most one transition is applied at a time. Fire calls from other
// goroutines wait for the running transition; Fire calls made with a context
// handed to an action or listener of the running transition are queued and
// applied, in order, once it completes. Reads never block and always observe
// the configuration as of the last applied transition, partially applied
// ones included.
type Machine[S, E comparable, C any] struct {
	id       string
	graph    *Graph[S, E, C]
	walker   walker[S, E, C]
	resolver resolver[S, E, C]

	data   atomic.Pointer[machineData[S, E, C]]
	status atomic.Int32

	// gate holds a token while a goroutine owns the machine
	gate chan struct{}

	queueMu   sync.Mutex
	queue     []queuedEvent[E, C]
	maxQueued int

	executor         *Executor
	listenerExecutor *Executor
	actionTimeout    time.Duration
	logger           logrus.FieldLogger
	listeners        listenerRegistry[S, E, C]
	monitor          *Monitor
}

// NewMachine creates a machine in StatusInitialized
func NewMachine[S, E comparable, C any](g *Graph[S, E, C], opts ...Option) *Machine[S, E, C] {
	o := options{
		maxQueued: DefaultConfig().MaxQueuedEvents,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.executor == nil {
		o.executor = DefaultExecutor()
	}
	if o.listenerExecutor == nil {
		o.listenerExecutor = DefaultListenerExecutor()
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}

	m := &Machine[S, E, C]{
		id:               o.id,
		graph:            g,
		walker:           walker[S, E, C]{graph: g},
		resolver:         resolver[S, E, C]{policy: o.policy},
		gate:             make(chan struct{}, 1),
		maxQueued:        o.maxQueued,
		executor:         o.executor,
		listenerExecutor: o.listenerExecutor,
		actionTimeout:    o.actionTimeout,
		logger:           o.logger.WithField("machine", o.id),
	}
	m.data.Store(newMachineData[S, E, C]())
	m.status.Store(int32(StatusInitialized))
	m.monitor = newMonitor(func() string {
		if s, ok := m.CurrentState(); ok {
			return fmt.Sprint(s)
		}
		return ""
	})
	m.monitor.SetVerbose(o.verbose)
	m.monitor.SetTiming(o.timing)
	return m
}

// ID returns the machine id
func (m *Machine[S, E, C]) ID() string {
	return m.id
}

// Graph returns the graph driving the machine
func (m *Machine[S, E, C]) Graph() *Graph[S, E, C] {
	return m.graph
}

// Status returns the lifecycle status
func (m *Machine[S, E, C]) Status() Status {
	return Status(m.status.Load())
}

// Monitor returns the machine's counters and logging toggles
func (m *Machine[S, E, C]) Monitor() *Monitor {
	return m.monitor
}

// CurrentState returns the single active leaf, or the innermost state
// containing every active leaf when parallel regions are active. It reports
// false before Start and after Terminate.
func (m *Machine[S, E, C]) CurrentState() (S, bool) {
	s, ok := m.data.Load().current()
	if !ok {
		var zero S
		return zero, false
	}
	return s.id, true
}

// ActiveStates returns every active state in pre-order
func (m *Machine[S, E, C]) ActiveStates() []S {
	return ids(m.data.Load().states())
}

// ActiveLeaves returns the active leaf of every region
func (m *Machine[S, E, C]) ActiveLeaves() []S {
	return ids(m.data.Load().leaves())
}

// IsActive reports whether id is part of the active configuration
func (m *Machine[S, E, C]) IsActive(id S) bool {
	s, ok := m.graph.State(id)
	return ok && m.data.Load().isActive(s)
}

// IsFinished reports whether the machine reached a final configuration
func (m *Machine[S, E, C]) IsFinished() bool {
	return m.data.Load().isFinal()
}

// LastEvent returns the event of the last applied transition
func (m *Machine[S, E, C]) LastEvent() (E, bool) {
	d := m.data.Load()
	return d.event, d.hasEvent
}

// LastPayload returns the payload of the last applied operation
func (m *Machine[S, E, C]) LastPayload() C {
	return m.data.Load().payload
}

// DumpSavedData returns a snapshot of the configuration
func (m *Machine[S, E, C]) DumpSavedData() *SavedData[S, E, C] {
	return m.snapshot(m.data.Load())
}

func (m *Machine[S, E, C]) snapshot(d *machineData[S, E, C]) *SavedData[S, E, C] {
	return &SavedData[S, E, C]{graph: m.graph, data: d}
}

// Restore loads saved into a machine that was never started. No entry
// action runs; the machine becomes idle in the saved configuration.
func (m *Machine[S, E, C]) Restore(saved *SavedData[S, E, C]) error {
	if saved == nil || saved.graph != m.graph {
		return NewMachineError(ErrCodeIncompatibleSnapshot, "Restore",
			errors.New("saved data does not belong to this graph"))
	}
	if err := m.acquire(context.Background(), "Restore"); err != nil {
		return err
	}
	defer m.release()

	switch m.Status() {
	case StatusInitialized:
	case StatusTerminated:
		return NewMachineError(ErrCodeInvalidStatus, "Restore", ErrTerminated)
	default:
		return NewMachineError(ErrCodeInvalidStatus, "Restore", ErrAlreadyStarted)
	}
	m.data.Store(saved.data)
	m.status.Store(int32(StatusIdle))
	m.logger.WithField("states", ids(saved.data.states())).Debug("machine restored")
	return nil
}

// Start enters the initial configuration
func (m *Machine[S, E, C]) Start(ctx context.Context, payload C) error {
	if liveFrame(ctx, m) != nil {
		return NewMachineError(ErrCodeInvalidStatus, "Start", ErrAlreadyStarted)
	}
	if err := m.acquire(ctx, "Start"); err != nil {
		return err
	}
	defer m.release()

	switch m.Status() {
	case StatusInitialized:
	case StatusTerminated:
		return NewMachineError(ErrCodeInvalidStatus, "Start", ErrTerminated)
	default:
		return NewMachineError(ErrCodeInvalidStatus, "Start", ErrAlreadyStarted)
	}

	err := m.start(ctx, payload)
	return errors.Join(err, m.drain(ctx))
}

func (m *Machine[S, E, C]) start(ctx context.Context, payload C) error {
	tid := ulid.Make().String()
	fctx, f := withFrame(ctx, m)
	defer m.endFrame(f)

	m.status.Store(int32(StatusBusy))
	defer m.status.Store(int32(StatusIdle))

	initial := m.graph.initial
	log := m.logger.WithFields(logrus.Fields{"transition": tid, "to": initial.id})
	actx := &ActionContext[S, E, C]{
		Context:      fctx,
		machine:      m,
		transitionID: tid,
		to:           initial.id,
		hasTo:        true,
		payload:      payload,
	}

	var zero E
	work := m.data.Load().withEvent(zero, false, payload)
	p := m.walker.startPlan(work)
	work, stage, err := m.run(actx, p, work, log)
	m.data.Store(work)

	n := Notification[S, E, C]{TransitionID: tid, To: initial.id, HasTarget: true, Payload: payload}
	if err != nil {
		terr := NewTransitionError(nil, initial.id, nil, payload, stage, err)
		m.monitor.recordFailed("<start>", terr)
		log.WithError(terr).Error("start failed")
		n.Point, n.Err, n.Stage = TransitionException, terr, stage
		m.notify(fctx, n)
		return terr
	}
	log.Info("machine started")
	n.Point = Start
	m.notify(fctx, n)
	return nil
}

// Fire applies event to the machine.
//
// An event no transition accepts is declined: the configuration is left
// untouched and the result reports Declined. Firing on a terminated or
// finished machine is declined too. Firing with a context handed out by one
// of this machine's running transitions queues the event; the result then
// reports Queued and failures of the queued event are returned to the
// caller that fired the running transition.
func (m *Machine[S, E, C]) Fire(ctx context.Context, event E, payload C) (*FireResult[S], error) {
	if f := liveFrame(ctx, m); f != nil {
		if res, ok, err := m.enqueue(f, event, payload); ok {
			return res, err
		}
	}
	if err := m.acquire(ctx, "Fire"); err != nil {
		return nil, err
	}
	defer m.release()

	if m.Status() == StatusInitialized {
		return nil, NewMachineError(ErrCodeInvalidStatus, "Fire", ErrNotStarted)
	}
	res, err := m.fire(ctx, event, payload)
	return res, errors.Join(err, m.drain(ctx))
}

// fire runs one event through the transition protocol. The caller holds the
// gate.
func (m *Machine[S, E, C]) fire(ctx context.Context, event E, payload C) (*FireResult[S], error) {
	tid := ulid.Make().String()
	started := time.Now()
	fctx, f := withFrame(ctx, m)
	defer m.endFrame(f)

	terminated := m.Status() == StatusTerminated
	if !terminated {
		m.status.Store(int32(StatusBusy))
		defer m.status.Store(int32(StatusIdle))
	}

	before := m.data.Load()
	var from S
	if s, ok := before.current(); ok {
		from = s.id
	}
	log := m.logger.WithFields(logrus.Fields{"transition": tid, "event": event, "from": from})
	base := Notification[S, E, C]{
		TransitionID: tid,
		From:         from,
		Event:        event,
		HasEvent:     true,
		Payload:      payload,
	}
	after := func(d *machineData[S, E, C], err error, stage Stage) {
		n := base
		n.Point = AfterTransitionEnd
		n.Err, n.Stage = err, stage
		n.Elapsed = time.Since(started)
		if s, ok := d.current(); ok {
			n.To, n.HasTarget = s.id, true
		}
		n.Data = m.snapshot(d)
		m.notify(fctx, n)
	}

	n := base
	n.Point = BeforeTransitionBegin
	m.notify(fctx, n)

	var (
		found []*Transition[S, E, C]
		err   error
	)
	if !terminated {
		found, err = m.resolver.resolve(before, event, payload)
	}
	if err != nil {
		var terr *TransitionError
		errors.As(err, &terr)
		m.monitor.recordFailed(fmt.Sprintf("%v-[%v]", from, event), err)
		log.WithError(err).Error("guard failed")
		n := base
		n.Point, n.Err, n.Stage = TransitionException, err, terr.Stage
		m.notify(fctx, n)
		after(before, err, terr.Stage)
		return &FireResult[S]{TransitionID: tid, PreviousState: from, CurrentState: from}, err
	}
	if len(found) == 0 {
		m.monitor.recordDeclined(fmt.Sprintf("%v-[%v]", from, event))
		m.trace(log, "event declined")
		n := base
		n.Point = TransitionDeclined
		m.notify(fctx, n)
		after(before, nil, StageNotStarted)
		return newDeclinedResult(tid, from), nil
	}

	res := &FireResult[S]{TransitionID: tid, Processed: true, PreviousState: from}
	work := before.withEvent(event, true, payload)
	var stage Stage
	for i, t := range found {
		if i > 0 && !work.isActive(t.source) {
			m.trace(log.WithField("skipped", t.String()), "region transition source no longer active")
			continue
		}
		if work, stage, err = m.execute(fctx, tid, t, work, event, true, payload, log); err != nil {
			break
		}
		res.Transitions++
	}
	if err == nil {
		work, stage, err = m.complete(fctx, tid, work, payload, log, res)
	}
	m.data.Store(work)

	if s, ok := work.current(); ok {
		res.CurrentState = s.id
	}
	res.StateChanged = res.CurrentState != res.PreviousState || (res.Transitions > 0 && hasExternal(found))
	if err == nil {
		stage = StageFinalized
	}
	after(work, err, stage)
	return res, err
}

// complete takes completion transitions for as long as a parallel state
// has all of its regions in final states
func (m *Machine[S, E, C]) complete(ctx context.Context, tid string, work *machineData[S, E, C], payload C, log logrus.FieldLogger, res *FireResult[S]) (*machineData[S, E, C], Stage, error) {
	var zero E
	for i := 0; i <= len(m.graph.ordered); i++ {
		t, err := m.resolver.completion(work, payload)
		if err != nil {
			return work, StageInitialized, err
		}
		if t == nil {
			return work, StageFinalized, nil
		}
		var stage Stage
		if work, stage, err = m.execute(ctx, tid, t, work, zero, false, payload, log); err != nil {
			return work, stage, err
		}
		res.Transitions++
	}
	return work, StageFinalized, nil
}

// execute applies one selected transition to work, notifying listeners
func (m *Machine[S, E, C]) execute(ctx context.Context, tid string, t *Transition[S, E, C], work *machineData[S, E, C], event E, hasEvent bool, payload C, log logrus.FieldLogger) (*machineData[S, E, C], Stage, error) {
	to, hasTo := t.targetID()
	log = log.WithFields(logrus.Fields{"source": t.source.id, "to": targetOf(t)})
	actx := &ActionContext[S, E, C]{
		Context:      ctx,
		machine:      m,
		transitionID: tid,
		from:         t.source.id,
		to:           to,
		hasTo:        hasTo,
		event:        event,
		hasEvent:     hasEvent,
		payload:      payload,
	}
	n := Notification[S, E, C]{
		Point:        TransitionBegin,
		TransitionID: tid,
		From:         t.source.id,
		To:           to,
		HasTarget:    hasTo,
		Event:        event,
		HasEvent:     hasEvent,
		Payload:      payload,
		Data:         m.snapshot(work),
	}
	m.notify(ctx, n)

	started := time.Now()
	p := m.walker.plan(work, t)
	work, stage, err := m.run(actx, p, work, log)
	elapsed := time.Since(started)

	// listeners of this transition observe its outcome through the machine
	m.data.Store(work)
	n.Data = m.snapshot(work)
	if err != nil {
		var eventValue any
		if hasEvent {
			eventValue = event
		}
		terr := NewTransitionError(t.source.id, targetOf(t), eventValue, payload, stage, err)
		m.monitor.recordFailed(t.String(), terr)
		log.WithError(err).WithField("stage", stage.String()).Error("transition failed")
		n.Point, n.Err, n.Stage = TransitionException, terr, stage
		m.notify(ctx, n)
		return work, stage, terr
	}

	m.monitor.recordInvoked(t.String(), elapsed)
	m.trace(log.WithField("elapsed", elapsed), "transition complete")
	n.Point, n.Stage, n.Elapsed = TransitionComplete, StageFinalized, elapsed
	m.notify(ctx, n)
	return work, StageFinalized, nil
}

// run executes the exit actions, the transition actions and the entry
// actions of p, updating work after each state. On failure it returns the
// last stage completed together with the configuration reached so far.
func (m *Machine[S, E, C]) run(actx *ActionContext[S, E, C], p *plan[S, E, C], work *machineData[S, E, C], log logrus.FieldLogger) (*machineData[S, E, C], Stage, error) {
	var source *State[S, E, C]
	if p.transition != nil {
		source = p.transition.source
	}

	for _, step := range p.exits {
		if err := m.runActions(actx, step.state.exit); err != nil {
			if source != nil && source.IsAncestorOf(step.state) {
				return work, StageStarted, err
			}
			return work, StageChildrenExited, err
		}
		work = work.exited(step)
		m.trace(log.WithField("state", step.state.id), "state exited")
	}

	if p.transition != nil {
		if err := m.runActions(actx, p.transition.actions); err != nil {
			return work, StageStateExited, err
		}
	}

	for _, s := range p.entries {
		if err := m.runActions(actx, s.entry); err != nil {
			return work, StageTransitionDone, err
		}
		work = work.entered(s)
		m.trace(log.WithField("state", s.id), "state entered")
	}

	if p.transition != nil && p.transition.toFinal {
		work = work.withFinished(true)
	}
	return work, StageStateEntered, nil
}

func (m *Machine[S, E, C]) runActions(actx *ActionContext[S, E, C], actions []Action[S, E, C]) error {
	if len(actions) == 0 {
		return nil
	}
	tasks := make([]Task, len(actions))
	for i, action := range actions {
		action := action
		var timeout time.Duration
		if action.IsAsync() {
			timeout = action.Timeout()
			if timeout <= 0 {
				timeout = m.actionTimeout
			}
		}
		tasks[i] = Task{
			Name:    action.Name(),
			Async:   action.IsAsync(),
			Timeout: timeout,
			Run: func(ctx context.Context) error {
				return action.Execute(actx.withContext(ctx))
			},
		}
	}
	return m.executor.RunStep(actx, tasks)
}

// Test resolves event against the current configuration and computes the
// resulting one without running any action or changing the machine. Guards
// are evaluated.
func (m *Machine[S, E, C]) Test(ctx context.Context, event E, payload C) (*TestResult[S], error) {
	switch m.Status() {
	case StatusInitialized:
		return nil, NewMachineError(ErrCodeInvalidStatus, "Test", ErrNotStarted)
	case StatusTerminated:
		return m.testResult(m.data.Load(), true), nil
	}

	d := m.data.Load()
	found, err := m.resolver.resolve(d, event, payload)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return m.testResult(d, true), nil
	}

	var exited, entered []*State[S, E, C]
	work := d
	take := func(t *Transition[S, E, C]) {
		p := m.walker.plan(work, t)
		for _, step := range p.exits {
			exited = append(exited, step.state)
		}
		entered = append(entered, p.entries...)
		work = p.apply(work)
	}
	for i, t := range found {
		if i > 0 && !work.isActive(t.source) {
			continue
		}
		take(t)
	}
	for i := 0; i <= len(m.graph.ordered); i++ {
		t, err := m.resolver.completion(work, payload)
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		take(t)
	}

	res := m.testResult(work, false)
	res.Exited = ids(exited)
	res.Entered = ids(entered)
	return res, nil
}

func (m *Machine[S, E, C]) testResult(d *machineData[S, E, C], declined bool) *TestResult[S] {
	res := &TestResult[S]{
		Declined:     declined,
		ActiveStates: ids(d.states()),
		ActiveLeaves: ids(d.leaves()),
	}
	if s, ok := d.current(); ok {
		res.CurrentState, res.HasCurrent = s.id, true
	}
	return res
}

// Terminate waits for the running transition, exits every active state
// and marks the machine terminated. Further events are declined.
func (m *Machine[S, E, C]) Terminate(ctx context.Context, payload C) error {
	if liveFrame(ctx, m) != nil {
		return &ConcurrencyError{
			Operation: "Terminate",
			Message:   "machine cannot be terminated from within its own transition",
		}
	}
	if err := m.acquire(ctx, "Terminate"); err != nil {
		return err
	}
	defer m.release()

	switch m.Status() {
	case StatusInitialized:
		return NewMachineError(ErrCodeInvalidStatus, "Terminate", ErrNotStarted)
	case StatusTerminated:
		return NewMachineError(ErrCodeInvalidStatus, "Terminate", ErrTerminated)
	}

	err := m.terminate(ctx, payload)
	return errors.Join(err, m.drain(ctx))
}

func (m *Machine[S, E, C]) terminate(ctx context.Context, payload C) error {
	tid := ulid.Make().String()
	fctx, f := withFrame(ctx, m)
	defer m.endFrame(f)

	m.status.Store(int32(StatusBusy))
	defer m.status.Store(int32(StatusTerminated))

	before := m.data.Load()
	var from S
	if s, ok := before.current(); ok {
		from = s.id
	}
	log := m.logger.WithFields(logrus.Fields{"transition": tid, "from": from})
	actx := &ActionContext[S, E, C]{
		Context:      fctx,
		machine:      m,
		transitionID: tid,
		from:         from,
		payload:      payload,
	}

	var zero E
	work := before.withEvent(zero, false, payload)
	work, stage, err := m.run(actx, m.walker.terminatePlan(work), work, log)
	m.data.Store(work)

	n := Notification[S, E, C]{TransitionID: tid, From: from, Payload: payload}
	if err != nil {
		terr := NewTransitionError(from, nil, nil, payload, stage, err)
		m.monitor.recordFailed("<terminate>", terr)
		log.WithError(terr).Error("terminate failed")
		n.Point, n.Err, n.Stage = TransitionException, terr, stage
		m.notify(fctx, n)
		return terr
	}
	log.Info("machine terminated")
	n.Point = Terminate
	m.notify(fctx, n)
	return nil
}

func (m *Machine[S, E, C]) acquire(ctx context.Context, op string) error {
	// a free gate is taken even when ctx is already done
	select {
	case m.gate <- struct{}{}:
		return nil
	default:
	}
	select {
	case m.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &ConcurrencyError{
			Operation: op,
			Message:   "gave up waiting for the running transition",
			Err:       ctx.Err(),
		}
	}
}

func (m *Machine[S, E, C]) release() {
	<-m.gate
}

// enqueue queues an event fired from within a running transition. ok is
// false when the frame ended in the meantime, in which case the caller
// must fire normally.
func (m *Machine[S, E, C]) enqueue(f *frame, event E, payload C) (*FireResult[S], bool, error) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if !f.live.Load() {
		return nil, false, nil
	}
	if len(m.queue) >= m.maxQueued {
		return nil, true, &ConcurrencyError{
			Operation: "Fire",
			Message:   fmt.Sprintf("more than %d events fired from within a transition", m.maxQueued),
			Err:       ErrQueueFull,
		}
	}
	m.queue = append(m.queue, queuedEvent[E, C]{event: event, payload: payload})
	m.logger.WithField("event", event).Debug("event queued")
	return &FireResult[S]{Queued: true}, true, nil
}

func (m *Machine[S, E, C]) endFrame(f *frame) {
	m.queueMu.Lock()
	f.live.Store(false)
	m.queueMu.Unlock()
}

func (m *Machine[S, E, C]) dequeue() (queuedEvent[E, C], bool) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if len(m.queue) == 0 {
		return queuedEvent[E, C]{}, false
	}
	ev := m.queue[0]
	m.queue = m.queue[1:]
	return ev, true
}

func (m *Machine[S, E, C]) clearQueue() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	n := len(m.queue)
	m.queue = nil
	return n
}

// drain fires the queued events in order. The caller holds the gate.
// One outer call drains at most maxQueued events; a longer chain is cut
// and the events still queued are dropped.
func (m *Machine[S, E, C]) drain(ctx context.Context) error {
	var errs []error
	for drained := 0; ; drained++ {
		ev, ok := m.dequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if drained >= m.maxQueued {
			dropped := m.clearQueue() + 1
			m.logger.WithField("dropped", dropped).Warn("reentrant fire chain cut")
			errs = append(errs, &ConcurrencyError{
				Operation: "Fire",
				Message:   fmt.Sprintf("more than %d chained events fired from within transitions", m.maxQueued),
				Err:       ErrReentrantDepth,
			})
			return errors.Join(errs...)
		}
		if _, err := m.fire(ctx, ev.event, ev.payload); err != nil {
			errs = append(errs, err)
		}
	}
}

func (m *Machine[S, E, C]) trace(log logrus.FieldLogger, msg string) {
	if m.monitor.Verbose() {
		log.Info(msg)
		return
	}
	log.Debug(msg)
}

func hasExternal[S, E comparable, C any](found []*Transition[S, E, C]) bool {
	for _, t := range found {
		if t.kind != Internal {
			return true
		}
	}
	return false
}
