package payment

import (
	"github.com/AlexZinkM/confidential-pay/internal/model"
)

// Event drives a payment intent through its lifecycle
type Event string

const (
	EventSubmit           Event = "submit"
	EventComputeSucceeded Event = "record computation result"
	EventComputeFailed    Event = "record computation failure"
	EventRelease          Event = "release"
	EventFail             Event = "fail"
	EventConfirm          Event = "confirm"
	EventFinalize         Event = "finalize"
	EventCancel           Event = "cancel"
)

// transitions is the complete lifecycle table. Anything absent is illegal.
//
//	PENDING -> PROCESSING -> CONFIRMED -> FINALIZED
//	PENDING|PROCESSING -> CANCELLED
//	PROCESSING -> FAILED
//	PROCESSING -> PENDING  (retriable computation failure)
var transitions = map[model.IntentStatus]map[Event]model.IntentStatus{
	model.IntentStatusPending: {
		EventSubmit:  model.IntentStatusProcessing,
		EventConfirm: model.IntentStatusConfirmed,
		EventCancel:  model.IntentStatusCancelled,
	},
	model.IntentStatusProcessing: {
		EventComputeSucceeded: model.IntentStatusProcessing,
		EventComputeFailed:    model.IntentStatusPending,
		EventRelease:          model.IntentStatusPending,
		EventFail:             model.IntentStatusFailed,
		EventConfirm:          model.IntentStatusConfirmed,
		EventCancel:           model.IntentStatusCancelled,
	},
	model.IntentStatusConfirmed: {
		EventFinalize: model.IntentStatusFinalized,
	},
}

// Transition returns the status reached from status on ev, or
// ErrInvalidState when ev is not allowed there.
func Transition(status model.IntentStatus, ev Event) (model.IntentStatus, error) {
	next, ok := transitions[status][ev]
	if !ok {
		return status, ErrInvalidState
	}
	return next, nil
}

// apply checks ev against the table and the computation guards, then moves p.
// On error p is unchanged.
func apply(p *model.PaymentIntent, ev Event) error {
	reject := func(err error) error {
		return &StateError{ID: p.ID, Status: p.Status, Event: ev, Err: err}
	}

	next, err := Transition(p.Status, ev)
	if ev == EventSubmit && p.Status == model.IntentStatusProcessing {
		return reject(ErrAlreadySubmitted)
	}
	if err != nil {
		return reject(err)
	}

	switch ev {
	case EventSubmit:
		// PENDING with a live or finished computation must not be re-sent
		if p.ComputationStatus == model.ComputationProcessing || p.ComputationStatus == model.ComputationCompleted {
			return reject(ErrAlreadySubmitted)
		}
	case EventConfirm:
		if p.ComputationStatus != model.ComputationCompleted {
			return reject(ErrInvalidState)
		}
	}

	p.Status = next
	return nil
}
