package statewise

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// State was not found in the graph
	ErrCodeStateNotFound
	// Graph definition is invalid
	ErrCodeInvalidDefinition
	// A guard or an action failed while a transition was applied
	ErrCodeTransitionFailed
	// An asynchronous action or listener exceeded its timeout
	ErrCodeTimeout
	// Machine is not in a status that allows the operation
	ErrCodeInvalidStatus
	// Reentrant queue overflow or lock misuse
	ErrCodeConcurrencyMisuse
	// Saved data does not belong to the machine's graph
	ErrCodeIncompatibleSnapshot
)

var (
	// ErrNotStarted is returned when an operation requires a started machine
	ErrNotStarted = errors.New("state machine is not started")
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("state machine is already started")
	// ErrTerminated is returned when a terminated machine is started or restored
	ErrTerminated = errors.New("state machine is terminated")
	// ErrQueueFull is returned when too many reentrant events are queued
	ErrQueueFull = errors.New("reentrant event queue is full")
	// ErrReentrantDepth is returned when events fired from within
	// transitions keep triggering each other past the queue bound
	ErrReentrantDepth = errors.New("reentrant fire depth exceeded")
)

// DefinitionError collects every problem found while building a graph
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	if len(e.Problems) == 1 {
		return "definition error: " + e.Problems[0]
	}
	return fmt.Sprintf("definition error: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *DefinitionError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *DefinitionError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// StateError represents state-related errors
type StateError struct {
	Code    ErrorCode
	StateID any
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%v]: %s", e.StateID, e.Message)
}

// NewStateNotFoundError creates a new state not found error
func NewStateNotFoundError(stateID any) *StateError {
	return &StateError{
		Code:    ErrCodeStateNotFound,
		StateID: stateID,
		Message: fmt.Sprintf("state '%v' not found", stateID),
	}
}

// TransitionError wraps a failure raised by a guard or an action. Stage is
// the last protocol step that completed before the failure; the machine data
// reflects every exit and entry applied up to that point.
type TransitionError struct {
	From    any
	To      any
	Event   any
	Payload any
	Stage   Stage
	Cause   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%v->%v on %v] at stage %s: %v", e.From, e.To, e.Event, e.Stage, e.Cause)
}

func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// NewTransitionError creates a new transition error
func NewTransitionError(from, to, event, payload any, stage Stage, cause error) *TransitionError {
	return &TransitionError{
		From:    from,
		To:      to,
		Event:   event,
		Payload: payload,
		Stage:   stage,
		Cause:   cause,
	}
}

// TimeoutError reports an action or listener that did not finish in time
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("'%s' timed out after %s", e.Name, e.Timeout)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(name string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Name: name, Timeout: timeout}
}

// ConcurrencyError reports misuse of the per-instance concurrency model
type ConcurrencyError struct {
	Operation string
	Message   string
	Err       error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error during %s: %s", e.Operation, e.Message)
}

func (e *ConcurrencyError) Unwrap() error {
	return e.Err
}

// MachineError represents state machine lifecycle errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	Err       error
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %v", e.Operation, e.Err)
}

func (e *MachineError) Unwrap() error {
	return e.Err
}

// NewMachineError creates a new machine error
func NewMachineError(code ErrorCode, operation string, err error) *MachineError {
	return &MachineError{
		Code:      code,
		Operation: operation,
		Err:       err,
	}
}

// IsDefinitionError checks if an error is a DefinitionError
func IsDefinitionError(err error) bool {
	var target *DefinitionError
	return errors.As(err, &target)
}

// IsStateError checks if an error is a StateError
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	var target *TransitionError
	return errors.As(err, &target)
}

// IsTimeoutError checks if an error is or wraps a TimeoutError
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsConcurrencyError checks if an error is a ConcurrencyError
func IsConcurrencyError(err error) bool {
	var target *ConcurrencyError
	return errors.As(err, &target)
}

// IsMachineError checks if an error is a MachineError
func IsMachineError(err error) bool {
	var target *MachineError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		stateErr      *StateError
		machineErr    *MachineError
		definitionErr *DefinitionError
		transitionErr *TransitionError
		timeoutErr    *TimeoutError
		concurrentErr *ConcurrencyError
	)
	switch {
	case err == nil:
		return ErrCodeNone
	case errors.As(err, &definitionErr):
		return ErrCodeInvalidDefinition
	case errors.As(err, &concurrentErr):
		return ErrCodeConcurrencyMisuse
	case errors.As(err, &transitionErr):
		return ErrCodeTransitionFailed
	case errors.As(err, &timeoutErr):
		return ErrCodeTimeout
	case errors.As(err, &stateErr):
		return stateErr.Code
	case errors.As(err, &machineErr):
		return machineErr.Code
	default:
		return ErrCodeNone
	}
}
