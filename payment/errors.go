package payment

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/confidential-pay/internal/model"
)

var (
	// ErrInvalidState is the root of every rejected lifecycle transition.
	ErrInvalidState = errors.New("invalid state for this operation")

	// ErrAlreadySubmitted rejects a second submission while a computation
	// is in flight or already completed.
	ErrAlreadySubmitted = fmt.Errorf("%w: computation already submitted", ErrInvalidState)

	// ErrResultDiscarded reports an MPC result that arrived after the intent
	// was cancelled or resubmitted. The stored intent is left untouched.
	ErrResultDiscarded = fmt.Errorf("%w: computation result discarded", ErrInvalidState)

	// ErrComputation is the root of every failed MPC call.
	ErrComputation = errors.New("computation failed")

	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrMissingSender    = errors.New("sender is required")
	ErrEmptyBatch       = errors.New("batch must contain at least one intent")
	ErrDuplicateIntent  = errors.New("intent appears more than once in batch")

	ErrUnknownCallbackStatus = errors.New("unknown callback status")

	// ErrUnverifiedSettlement rejects a finalization whose transaction
	// signature could not be verified on chain.
	ErrUnverifiedSettlement = errors.New("settlement not verified")
)

// StateError is returned when an operation is not legal in the intent's
// current state. The stored state is never mutated.
type StateError struct {
	ID     string
	Status model.IntentStatus
	Event  Event
	Err    error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("intent %s: cannot %s in status %s: %v", e.ID, e.Event, e.Status, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// IsStateError checks if err is a StateError
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// ComputationError records a failed MPC call. Retriable failures leave the
// intent resubmittable from PENDING.
type ComputationError struct {
	ComputationID string
	Retriable     bool
	Err           error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation %s failed: %v", e.ComputationID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}

// IsRetriable reports whether err is a ComputationError that may be retried
func IsRetriable(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce) && ce.Retriable
}
