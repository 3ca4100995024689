package statewise

import (
	"sync"
	"sync/atomic"
	"time"
)

// TransitionStats are the counters kept for one transition
type TransitionStats struct {
	Invoked  uint64
	Declined uint64
	Failed   uint64

	// Timing fields are only collected while timing is enabled
	Timed     uint64
	TotalTime time.Duration
	MaxTime   time.Duration
}

// AverageTime returns the mean duration of the timed invocations
func (s TransitionStats) AverageTime() time.Duration {
	if s.Timed == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Timed)
}

// MonitorSnapshot is a point-in-time copy of a Monitor
type MonitorSnapshot struct {
	Invoked      uint64
	Declined     uint64
	Failed       uint64
	LastError    string
	CurrentState string
	Transitions  map[string]TransitionStats
}

// Monitor exposes read-only counters about a machine. It observes the
// machine but never influences transitions. Declines are keyed by
// "state-[event]", other counters by the transition's String form.
type Monitor struct {
	verbose atomic.Bool
	timing  atomic.Bool

	mu          sync.Mutex
	invoked     uint64
	declined    uint64
	failed      uint64
	lastError   string
	transitions map[string]*TransitionStats

	current func() string
}

func newMonitor(current func() string) *Monitor {
	return &Monitor{
		transitions: make(map[string]*TransitionStats),
		current:     current,
	}
}

// SetVerbose promotes per-step logging from debug to info level
func (mon *Monitor) SetVerbose(verbose bool) {
	mon.verbose.Store(verbose)
}

// Verbose reports whether verbose logging is enabled
func (mon *Monitor) Verbose() bool {
	return mon.verbose.Load()
}

// SetTiming enables collection of transition durations
func (mon *Monitor) SetTiming(timing bool) {
	mon.timing.Store(timing)
}

// Timing reports whether transition durations are collected
func (mon *Monitor) Timing() bool {
	return mon.timing.Load()
}

// Snapshot copies the current counters
func (mon *Monitor) Snapshot() MonitorSnapshot {
	mon.mu.Lock()
	snap := MonitorSnapshot{
		Invoked:     mon.invoked,
		Declined:    mon.declined,
		Failed:      mon.failed,
		LastError:   mon.lastError,
		Transitions: make(map[string]TransitionStats, len(mon.transitions)),
	}
	for key, stats := range mon.transitions {
		snap.Transitions[key] = *stats
	}
	mon.mu.Unlock()

	if mon.current != nil {
		snap.CurrentState = mon.current()
	}
	return snap
}

// Stats returns the counters kept for key
func (mon *Monitor) Stats(key string) (TransitionStats, bool) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	stats, ok := mon.transitions[key]
	if !ok {
		return TransitionStats{}, false
	}
	return *stats, true
}

// LastError returns the message of the last failure
func (mon *Monitor) LastError() string {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastError
}

// Reset clears every counter. The toggles are kept.
func (mon *Monitor) Reset() {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.invoked, mon.declined, mon.failed = 0, 0, 0
	mon.lastError = ""
	mon.transitions = make(map[string]*TransitionStats)
}

func (mon *Monitor) stats(key string) *TransitionStats {
	stats, ok := mon.transitions[key]
	if !ok {
		stats = &TransitionStats{}
		mon.transitions[key] = stats
	}
	return stats
}

func (mon *Monitor) recordInvoked(key string, elapsed time.Duration) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.invoked++
	stats := mon.stats(key)
	stats.Invoked++
	if mon.timing.Load() {
		stats.Timed++
		stats.TotalTime += elapsed
		if elapsed > stats.MaxTime {
			stats.MaxTime = elapsed
		}
	}
}

func (mon *Monitor) recordDeclined(key string) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.declined++
	mon.stats(key).Declined++
}

func (mon *Monitor) recordFailed(key string, err error) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.failed++
	mon.stats(key).Failed++
	mon.lastError = err.Error()
}
