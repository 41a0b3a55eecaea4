package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/batch"
	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/sirupsen/logrus"
)

const entityPaymentIntent = "payment_intent"

// SubmitForComputation sends a PENDING intent's encrypted amount to the MPC
// network.
//
// The PENDING -> PROCESSING step is a conditional update, so of several
// concurrent callers exactly one issues the MPC call; the rest get
// ErrAlreadySubmitted. A failed or timed-out call returns a ComputationError
// and leaves the intent PENDING for resubmission until MaxAttempts is used up.
func (s *Service) SubmitForComputation(ctx context.Context, id string) (*model.PaymentIntent, error) {
	computationID := newComputationID()

	claimed, err := s.claim(ctx, id, computationID)
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{"intent": id, "computation": computationID})
	logger.WithField("attempt", claimed.Attempts).Info("submitting computation")

	// Persist the outcome even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	req, err := buildRequest(computationID, model.OpConfidentialTransfer, []*model.PaymentIntent{claimed})
	if err != nil {
		cerr := &ComputationError{ComputationID: computationID, Retriable: false, Err: err}
		return s.recordFailure(persistCtx, id, computationID, cerr)
	}

	records, cerr := s.execute(ctx, req)
	if cerr != nil {
		logger.WithError(cerr).Warn("computation failed")
		return s.recordFailure(persistCtx, id, computationID, cerr)
	}

	return s.recordSuccess(persistCtx, id, computationID, records[0])
}

// claim moves id to PROCESSING under computationID.
func (s *Service) claim(ctx context.Context, id, computationID string) (*model.PaymentIntent, error) {
	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := apply(p, EventSubmit); err != nil {
			return err
		}
		p.ComputationStatus = model.ComputationProcessing
		p.ComputationID = computationID
		p.ComputationError = ""
		p.Attempts++
		p.UpdatedAt = s.opts.Now()
		return nil
	})
	if err != nil {
		s.observeRejection(EventSubmit, err)
		return nil, err
	}
	s.metrics.Transitions.WithLabelValues(string(EventSubmit)).Inc()
	return updated, nil
}

// buildRequest packs the amount commitments of intents, in order, with one
// key reference per record.
func buildRequest(computationID string, op model.Operation, intents []*model.PaymentIntent) (*model.ComputationRequest, error) {
	records := make([][]byte, len(intents))
	keyRefs := make([]string, len(intents))
	for i, p := range intents {
		ct, err := base64.StdEncoding.DecodeString(p.AmountCommitment)
		if err != nil {
			return nil, fmt.Errorf("%w: intent %s commitment is not valid base64", batch.ErrStructural, p.ID)
		}
		records[i] = ct
		keyRefs[i] = p.KeyOwner()
		if keyRefs[i] == "" {
			return nil, fmt.Errorf("intent %s has no encryption key reference", p.ID)
		}
	}

	packed, err := batch.Pack(records)
	if err != nil {
		return nil, err
	}

	req := &model.ComputationRequest{
		ComputationID: computationID,
		Operation:     op,
		Batch:         packed,
		Count:         len(intents),
		EntityType:    entityPaymentIntent,
	}
	if len(intents) == 1 {
		req.KeyRef = keyRefs[0]
		req.ReferenceID = intents[0].ID
	} else {
		req.KeyRefs = keyRefs
	}
	return req, nil
}

// execute calls the MPC client within the configured timeout and unpacks the
// result. Anything short of an unambiguous success is a ComputationError.
func (s *Service) execute(ctx context.Context, req *model.ComputationRequest) ([][]byte, *ComputationError) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := s.mpc.Execute(callCtx, req)
	s.metrics.ComputationLatency.Observe(time.Since(start).Seconds())

	records, cerr := checkResult(req, res, err)
	outcome := "completed"
	if cerr != nil {
		outcome = "failed"
	}
	s.metrics.Computations.WithLabelValues(string(req.Operation), outcome).Inc()
	return records, cerr
}

func checkResult(req *model.ComputationRequest, res *model.ComputationResult, err error) ([][]byte, *ComputationError) {
	fail := func(retriable bool, err error) ([][]byte, *ComputationError) {
		return nil, &ComputationError{ComputationID: req.ComputationID, Retriable: retriable, Err: err}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fail(true, fmt.Errorf("timed out waiting for MPC network: %w", err))
	case err != nil:
		return fail(true, err)
	case res == nil:
		return fail(true, errors.New("empty response from MPC network"))
	case res.Error != "":
		return fail(true, errors.New(res.Error))
	case !strings.EqualFold(res.Status, model.ResultStatusCompleted):
		return fail(true, fmt.Errorf("ambiguous computation status %q", res.Status))
	case res.ComputationID != "" && res.ComputationID != req.ComputationID:
		return fail(true, fmt.Errorf("response for computation %s", res.ComputationID))
	case res.Count != req.Count:
		return fail(false, fmt.Errorf("%w: expected %d results, got %d", batch.ErrStructural, req.Count, res.Count))
	}

	records, err := batch.Unpack(res.Output, req.Count)
	if err != nil {
		return fail(false, err)
	}
	return records, nil
}

// recordSuccess stores the result of computationID on id. A result for an
// intent that was cancelled or resubmitted meanwhile is discarded.
func (s *Service) recordSuccess(ctx context.Context, id, computationID string, record []byte) (*model.PaymentIntent, error) {
	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := checkOwnership(p, computationID, EventComputeSucceeded); err != nil {
			return err
		}
		if err := apply(p, EventComputeSucceeded); err != nil {
			return discard(p, EventComputeSucceeded)
		}
		p.ComputationStatus = model.ComputationCompleted
		p.ResultCommitment = base64.StdEncoding.EncodeToString(record)
		if s.opts.AutoConfirm {
			if err := apply(p, EventConfirm); err != nil {
				return err
			}
		}
		p.UpdatedAt = s.opts.Now()
		return nil
	})
	if err != nil {
		return s.afterDiscard(ctx, id, computationID, err)
	}

	s.log.WithFields(logrus.Fields{
		"intent":      id,
		"computation": computationID,
		"status":      updated.Status,
	}).Info("computation completed")
	return updated, nil
}

// recordFailure marks computationID as failed on id and returns a copy of
// cerr whose Retriable reflects this intent. The intent goes back to PENDING
// when the failure is retriable and attempts remain; otherwise it becomes
// FAILED. cerr itself is not modified. A failure for an intent that moved on
// meanwhile is discarded like a late result.
func (s *Service) recordFailure(ctx context.Context, id, computationID string, cerr *ComputationError) (*model.PaymentIntent, error) {
	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := checkOwnership(p, computationID, EventComputeFailed); err != nil {
			return err
		}

		ev := EventComputeFailed
		if !cerr.Retriable || p.Attempts >= s.opts.MaxAttempts {
			ev = EventFail
		}
		if err := apply(p, ev); err != nil {
			return discard(p, ev)
		}
		p.ComputationStatus = model.ComputationFailed
		p.ComputationError = cerr.Err.Error()
		p.UpdatedAt = s.opts.Now()
		return nil
	})
	if err != nil {
		return s.afterDiscard(ctx, id, computationID, err)
	}

	recorded := &ComputationError{
		ComputationID: cerr.ComputationID,
		Retriable:     cerr.Retriable && updated.Status != model.IntentStatusFailed,
		Err:           cerr.Err,
	}
	s.log.WithFields(logrus.Fields{
		"intent":      id,
		"computation": computationID,
		"status":      updated.Status,
		"retriable":   recorded.Retriable,
	}).Warn("computation failure recorded")
	return updated, recorded
}

// checkOwnership rejects outcomes of a computation the intent no longer runs.
func checkOwnership(p *model.PaymentIntent, computationID string, ev Event) error {
	if p.ComputationID != computationID {
		return discard(p, ev)
	}
	return nil
}

func discard(p *model.PaymentIntent, ev Event) error {
	return &StateError{ID: p.ID, Status: p.Status, Event: ev, Err: ErrResultDiscarded}
}

// afterDiscard logs a discarded outcome and returns the current intent with
// the discard error.
func (s *Service) afterDiscard(ctx context.Context, id, computationID string, err error) (*model.PaymentIntent, error) {
	if !errors.Is(err, ErrResultDiscarded) {
		return nil, err
	}

	s.metrics.Computations.WithLabelValues("", "discarded").Inc()
	s.log.WithFields(logrus.Fields{"intent": id, "computation": computationID}).
		Warn("late computation outcome discarded")

	current, gerr := s.store.GetIntentByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	return current, err
}

// HandleCallback applies a settlement notification from the MPC network.
func (s *Service) HandleCallback(ctx context.Context, cb *model.ComputationCallback) (*model.PaymentIntent, error) {
	intent, err := s.store.FindByComputationID(ctx, cb.ComputationID)
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{"intent": intent.ID, "computation": cb.ComputationID})
	logger.WithField("status", cb.Status).Info("computation callback received")

	switch strings.ToLower(cb.Status) {
	case model.CallbackFinalized:
		return s.finalizeFromCallback(ctx, intent.ID, cb)
	case model.CallbackFailed:
		msg := cb.Error
		if msg == "" {
			msg = "computation reported failed by MPC network"
		}
		cerr := &ComputationError{ComputationID: cb.ComputationID, Retriable: true, Err: errors.New(msg)}
		updated, err := s.recordFailure(ctx, intent.ID, cb.ComputationID, cerr)
		if errors.Is(err, ErrComputation) {
			// the failure was recorded; that is the callback's success
			return updated, nil
		}
		return updated, err
	case model.CallbackCancelled:
		return s.cancelFromCallback(ctx, intent.ID, cb.ComputationID)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownCallbackStatus, cb.Status)
	}
}

// finalizeFromCallback confirms (if needed) and finalizes in one update.
func (s *Service) finalizeFromCallback(ctx context.Context, id string, cb *model.ComputationCallback) (*model.PaymentIntent, error) {
	if cb.FinalizationSignature != "" {
		if err := s.verifySettlement(ctx, id, cb.FinalizationSignature); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := checkOwnership(p, cb.ComputationID, EventFinalize); err != nil {
			return err
		}
		if p.Status != model.IntentStatusConfirmed {
			if err := apply(p, EventConfirm); err != nil {
				return err
			}
		}
		if err := apply(p, EventFinalize); err != nil {
			return err
		}
		now := s.opts.Now()
		p.FinalizationSignature = cb.FinalizationSignature
		p.FinalizedAt = &now
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.observeRejection(EventFinalize, err)
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(EventFinalize)).Inc()
	s.log.WithField("intent", id).Info("intent finalized from callback")
	return updated, nil
}

// cancelFromCallback cancels id only while it still runs computationID.
func (s *Service) cancelFromCallback(ctx context.Context, id, computationID string) (*model.PaymentIntent, error) {
	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := checkOwnership(p, computationID, EventCancel); err != nil {
			return err
		}
		if err := apply(p, EventCancel); err != nil {
			return err
		}
		p.UpdatedAt = s.opts.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrResultDiscarded) {
			return s.afterDiscard(ctx, id, computationID, err)
		}
		s.observeRejection(EventCancel, err)
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(EventCancel)).Inc()
	s.log.WithFields(logrus.Fields{"intent": id, "computation": computationID}).Info("intent cancelled from callback")
	return updated, nil
}
