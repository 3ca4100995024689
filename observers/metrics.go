package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/statewise"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultComplete = "complete"
	resultFailed   = "failed"
	noTarget       = "<final>"
	noEvent        = "<completion>"
)

// MetricsObserver exports transition counters and durations to Prometheus
// and keeps per-state visit counts for direct inspection.
type MetricsObserver[S, E comparable, C any] struct {
	transitions *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	declined    *prometheus.CounterVec
	active      prometheus.Gauge

	mu     sync.RWMutex
	visits map[S]int
}

// MetricsOption configures a MetricsObserver
type MetricsOption func(*metricsOptions)

type metricsOptions struct {
	namespace string
	labels    prometheus.Labels
	buckets   []float64
}

// WithNamespace prefixes every metric name
func WithNamespace(namespace string) MetricsOption {
	return func(o *metricsOptions) { o.namespace = namespace }
}

// WithConstLabels attaches constant labels, such as the machine kind, to
// every metric
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(o *metricsOptions) { o.labels = labels }
}

// WithBuckets overrides the duration histogram buckets
func WithBuckets(buckets []float64) MetricsOption {
	return func(o *metricsOptions) { o.buckets = buckets }
}

// NewMetricsObserver registers the observer's metrics with reg. Pass
// prometheus.DefaultRegisterer to export through the default handler.
func NewMetricsObserver[S, E comparable, C any](reg prometheus.Registerer, opts ...MetricsOption) *MetricsObserver[S, E, C] {
	options := metricsOptions{
		namespace: "statewise",
		buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}
	for _, opt := range opts {
		opt(&options)
	}

	factory := promauto.With(reg)
	return &MetricsObserver[S, E, C]{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   options.namespace,
				Name:        "transitions_total",
				Help:        "A count of applied transitions.",
				ConstLabels: options.labels,
			},
			[]string{"from", "to", "event", "result"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   options.namespace,
				Name:        "transition_duration_seconds",
				Help:        "Time spent applying a transition.",
				ConstLabels: options.labels,
				Buckets:     options.buckets,
			},
			[]string{"from", "to", "event"},
		),
		declined: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   options.namespace,
				Name:        "declined_events_total",
				Help:        "A count of events no transition accepted.",
				ConstLabels: options.labels,
			},
			[]string{"from", "event"},
		),
		active: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   options.namespace,
				Name:        "running_machines",
				Help:        "Number of started machines that are not terminated.",
				ConstLabels: options.labels,
			},
		),
		visits: make(map[S]int),
	}
}

func transitionLabels[S, E comparable, C any](n statewise.Notification[S, E, C]) (from, to, event string) {
	from, to, event = fmt.Sprint(n.From), noTarget, noEvent
	if n.HasTarget {
		to = fmt.Sprint(n.To)
	}
	if n.HasEvent {
		event = fmt.Sprint(n.Event)
	}
	return from, to, event
}

// OnStart counts the machine as running and records the entered states
func (o *MetricsObserver[S, E, C]) OnStart(n statewise.Notification[S, E, C]) {
	o.active.Inc()
	o.visit(n)
}

// OnTerminate counts the machine as stopped
func (o *MetricsObserver[S, E, C]) OnTerminate(statewise.Notification[S, E, C]) {
	o.active.Dec()
}

func (o *MetricsObserver[S, E, C]) OnBeforeTransitionBegin(statewise.Notification[S, E, C]) {}
func (o *MetricsObserver[S, E, C]) OnTransitionBegin(statewise.Notification[S, E, C])       {}
func (o *MetricsObserver[S, E, C]) OnAfterTransitionEnd(statewise.Notification[S, E, C])    {}

// OnTransitionComplete counts and times the transition
func (o *MetricsObserver[S, E, C]) OnTransitionComplete(n statewise.Notification[S, E, C]) {
	from, to, event := transitionLabels(n)
	o.transitions.WithLabelValues(from, to, event, resultComplete).Inc()
	o.durations.WithLabelValues(from, to, event).Observe(n.Elapsed.Seconds())
	o.visit(n)
}

// OnTransitionDeclined counts the declined event
func (o *MetricsObserver[S, E, C]) OnTransitionDeclined(n statewise.Notification[S, E, C]) {
	from, _, event := transitionLabels(n)
	o.declined.WithLabelValues(from, event).Inc()
}

// OnTransitionException counts the failed transition
func (o *MetricsObserver[S, E, C]) OnTransitionException(n statewise.Notification[S, E, C]) {
	from, to, event := transitionLabels(n)
	o.transitions.WithLabelValues(from, to, event, resultFailed).Inc()
}

func (o *MetricsObserver[S, E, C]) visit(n statewise.Notification[S, E, C]) {
	if n.Data == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range n.Data.ActiveLeaves() {
		o.visits[id]++
	}
}

// StateVisits returns how often each leaf state was active after a start
// or a completed transition
func (o *MetricsObserver[S, E, C]) StateVisits() map[S]int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	result := make(map[S]int, len(o.visits))
	for id, count := range o.visits {
		result[id] = count
	}
	return result
}

// Reset clears the visit counts. Prometheus series are left untouched.
func (o *MetricsObserver[S, E, C]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visits = make(map[S]int)
}

var _ statewise.ExtendedObserver[string, string, any] = (*MetricsObserver[string, string, any])(nil)
