package statewise

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "single definition problem",
			err:      &DefinitionError{Problems: []string{"no initial state"}},
			expected: "definition error: no initial state",
		},
		{
			name:     "state not found",
			err:      NewStateNotFoundError("missing"),
			expected: "state error [missing]: state 'missing' not found",
		},
		{
			name:     "transition",
			err:      NewTransitionError("a", "b", "go", 1, StageStateExited, errors.New("boom")),
			expected: "transition error [a->b on go] at stage state-exited: boom",
		},
		{
			name:     "timeout",
			err:      NewTimeoutError("slow", time.Second),
			expected: "'slow' timed out after 1s",
		},
		{
			name:     "concurrency",
			err:      &ConcurrencyError{Operation: "Fire", Message: "queue full"},
			expected: "concurrency error during Fire: queue full",
		},
		{
			name:     "machine",
			err:      NewMachineError(ErrCodeInvalidStatus, "Start", ErrAlreadyStarted),
			expected: "machine error during Start: state machine is already started",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestErrors_Classification(t *testing.T) {
	cause := NewTimeoutError("slow", time.Second)
	terr := NewTransitionError("a", "b", "go", nil, StageTransitionDone, cause)
	wrapped := fmt.Errorf("fire: %w", terr)

	assert.True(t, IsTransitionError(wrapped))
	assert.True(t, IsTimeoutError(wrapped))
	assert.False(t, IsMachineError(wrapped))
	assert.Equal(t, ErrCodeTransitionFailed, GetErrorCode(wrapped))
	assert.Equal(t, ErrCodeTimeout, GetErrorCode(cause))

	assert.True(t, IsStateError(NewStateNotFoundError("x")))
	assert.Equal(t, ErrCodeStateNotFound, GetErrorCode(NewStateNotFoundError("x")))
	assert.True(t, IsDefinitionError(&DefinitionError{}))

	machineErr := NewMachineError(ErrCodeInvalidStatus, "Fire", ErrNotStarted)
	assert.True(t, IsMachineError(machineErr))
	assert.ErrorIs(t, machineErr, ErrNotStarted)
	assert.Equal(t, ErrCodeInvalidStatus, GetErrorCode(machineErr))

	queueErr := &ConcurrencyError{Operation: "Fire", Err: ErrQueueFull}
	assert.ErrorIs(t, queueErr, ErrQueueFull)
	assert.True(t, IsConcurrencyError(queueErr))

	assert.Equal(t, ErrCodeNone, GetErrorCode(nil))
	assert.Equal(t, ErrCodeNone, GetErrorCode(errors.New("plain")))
}

func TestErrors_DefinitionErrorCollects(t *testing.T) {
	problems := &DefinitionError{}
	assert.NoError(t, problems.orNil())

	problems.add("state %v is bad", "a")
	problems.add("state %v is worse", "b")
	err := problems.orNil()
	assert.Error(t, err)
	assert.Equal(t, "definition error: 2 problems: state a is bad; state b is worse", err.Error())
}

func TestTypes_String(t *testing.T) {
	assert.Equal(t, "parallel", Parallel.String())
	assert.Equal(t, "deep", DeepHistory.String())
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "Busy", StatusBusy.String())
	assert.Equal(t, "children-exited", StageChildrenExited.String())
	assert.Equal(t, "Stage(99)", Stage(99).String())
	assert.Equal(t, "Status(9)", Status(9).String())
	assert.Equal(t, "TransitionType(7)", TransitionType(7).String())
}
