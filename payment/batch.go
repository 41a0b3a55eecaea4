package payment

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/sirupsen/logrus"
)

// SubmitBatch sends several PENDING intents to the MPC network as one
// payroll computation. Every intent is claimed before the call; if any claim
// is rejected the ones already claimed are released and nothing is sent.
//
// Each intent gets its own computation id, <batch id>-<index>, so results and
// callbacks are applied per intent. A failed batch is recorded per intent
// against its own attempt budget; the returned ComputationError is retriable
// when at least one intent went back to PENDING.
func (s *Service) SubmitBatch(ctx context.Context, ids []string) (*model.BatchSubmitResponse, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIntent, id)
		}
		seen[id] = struct{}{}
	}

	batchID := newComputationID()
	logger := s.log.WithFields(logrus.Fields{"computation": batchID, "count": len(ids)})

	claimed := make([]*model.PaymentIntent, 0, len(ids))
	for i, id := range ids {
		p, err := s.claim(ctx, id, itemComputationID(batchID, i))
		if err != nil {
			s.release(context.WithoutCancel(ctx), claimed)
			return nil, err
		}
		claimed = append(claimed, p)
	}
	logger.Info("submitting payroll batch")

	persistCtx := context.WithoutCancel(ctx)
	resp := &model.BatchSubmitResponse{
		ComputationID: batchID,
		Intents:       make([]*model.PaymentIntent, len(claimed)),
	}

	req, err := buildRequest(batchID, model.OpBatchPayroll, claimed)
	var (
		records [][]byte
		cerr    *ComputationError
	)
	if err != nil {
		cerr = &ComputationError{ComputationID: batchID, Retriable: false, Err: err}
	} else {
		records, cerr = s.execute(ctx, req)
	}

	if cerr != nil {
		logger.WithError(cerr).Warn("payroll batch failed")
		retriable := false
		for i, p := range claimed {
			item := &ComputationError{ComputationID: p.ComputationID, Retriable: cerr.Retriable, Err: cerr.Err}
			updated, err := s.recordFailure(persistCtx, p.ID, p.ComputationID, item)
			if updated == nil {
				return nil, err
			}
			resp.Intents[i] = updated
			retriable = retriable || IsRetriable(err)
		}
		return resp, &ComputationError{ComputationID: batchID, Retriable: retriable, Err: cerr.Err}
	}

	for i, p := range claimed {
		updated, err := s.recordSuccess(persistCtx, p.ID, p.ComputationID, records[i])
		if updated == nil {
			return nil, err
		}
		resp.Intents[i] = updated
	}
	logger.Info("payroll batch completed")
	return resp, nil
}

// release undoes claim for intents whose batch was never sent.
func (s *Service) release(ctx context.Context, intents []*model.PaymentIntent) {
	for _, p := range intents {
		computationID := p.ComputationID
		_, err := s.store.UpdateIntentStatus(ctx, p.ID, func(cur *model.PaymentIntent) error {
			if err := checkOwnership(cur, computationID, EventRelease); err != nil {
				return err
			}
			if err := apply(cur, EventRelease); err != nil {
				return err
			}
			cur.ComputationStatus = model.ComputationQueued
			cur.ComputationID = ""
			cur.Attempts--
			cur.UpdatedAt = s.opts.Now()
			return nil
		})
		if err != nil {
			s.log.WithError(err).WithField("intent", p.ID).Error("failed to release intent from aborted batch")
		}
	}
}

func itemComputationID(batchID string, i int) string {
	return fmt.Sprintf("%s-%d", batchID, i)
}
