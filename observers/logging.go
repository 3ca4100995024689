package observers

import (
	"github.com/anggasct/statewise"
	"github.com/sirupsen/logrus"
)

// LoggingObserver logs machine lifecycle points. Completed transitions are
// logged at Info, declined events at Debug and failures at Error, so the
// logger's level decides how chatty the observer is.
type LoggingObserver[S, E comparable, C any] struct {
	logger logrus.FieldLogger
}

// NewLoggingObserver creates a logging observer writing to logger
func NewLoggingObserver[S, E comparable, C any](logger logrus.FieldLogger) *LoggingObserver[S, E, C] {
	return &LoggingObserver[S, E, C]{logger: logger}
}

// NewDefaultLoggingObserver logs through the standard logrus logger
func NewDefaultLoggingObserver[S, E comparable, C any]() *LoggingObserver[S, E, C] {
	return NewLoggingObserver[S, E, C](logrus.StandardLogger())
}

func (o *LoggingObserver[S, E, C]) fields(n statewise.Notification[S, E, C]) logrus.FieldLogger {
	fields := logrus.Fields{
		"point":      n.Point.String(),
		"transition": n.TransitionID,
	}
	if n.Machine != nil {
		fields["machine"] = n.Machine.ID()
	}
	if n.HasEvent {
		fields["event"] = n.Event
	}
	if n.HasTarget {
		fields["to"] = n.To
	}
	if n.Elapsed > 0 {
		fields["elapsed"] = n.Elapsed
	}
	return o.logger.WithFields(fields)
}

// OnStart logs the initial configuration
func (o *LoggingObserver[S, E, C]) OnStart(n statewise.Notification[S, E, C]) {
	o.fields(n).Info("state machine started")
}

// OnTerminate logs termination
func (o *LoggingObserver[S, E, C]) OnTerminate(n statewise.Notification[S, E, C]) {
	o.fields(n).Info("state machine terminated")
}

// OnBeforeTransitionBegin logs the incoming event
func (o *LoggingObserver[S, E, C]) OnBeforeTransitionBegin(n statewise.Notification[S, E, C]) {
	o.fields(n).WithField("from", n.From).Debug("event received")
}

// OnTransitionBegin logs the selected transition
func (o *LoggingObserver[S, E, C]) OnTransitionBegin(n statewise.Notification[S, E, C]) {
	o.fields(n).WithField("from", n.From).Debug("transition selected")
}

// OnTransitionComplete logs a completed transition
func (o *LoggingObserver[S, E, C]) OnTransitionComplete(n statewise.Notification[S, E, C]) {
	o.fields(n).WithField("from", n.From).Info("transition complete")
}

// OnTransitionDeclined logs a declined event
func (o *LoggingObserver[S, E, C]) OnTransitionDeclined(n statewise.Notification[S, E, C]) {
	o.fields(n).WithField("from", n.From).Debug("event declined")
}

// OnTransitionException logs a failed transition
func (o *LoggingObserver[S, E, C]) OnTransitionException(n statewise.Notification[S, E, C]) {
	o.fields(n).
		WithField("stage", n.Stage.String()).
		WithError(n.Err).
		Error("transition failed")
}

// OnAfterTransitionEnd is a no-op; every outcome is logged by the points above
func (o *LoggingObserver[S, E, C]) OnAfterTransitionEnd(statewise.Notification[S, E, C]) {}

var _ statewise.ExtendedObserver[string, string, any] = (*LoggingObserver[string, string, any])(nil)
