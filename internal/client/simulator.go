package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/confidential-pay/internal/batch"
	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrUnknownOperation is returned for an operation the simulator cannot run.
var ErrUnknownOperation = errors.New("unknown operation")

// Simulator executes computations locally: it decrypts the inputs with the
// same master key the service encrypts with, runs the operation in the clear
// and re-encrypts the output. It stands in for the MPC cluster in local mode.
type Simulator struct {
	codec *crypto.Codec
	log   *logrus.Logger
}

func NewSimulator(codec *crypto.Codec, logger *logrus.Logger) *Simulator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Simulator{codec: codec, log: logger}
}

// Execute runs req. Transfer and payroll produce one output record per input,
// encrypted for that input's key owner. The other operations fold their
// inputs into a single record for the first key owner.
func (s *Simulator) Execute(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{
		"computation": req.ComputationID,
		"operation":   req.Operation,
		"count":       req.Count,
	})
	logger.Debug("simulating computation")

	records, err := batch.Unpack(req.Batch, req.Count)
	if err != nil {
		return nil, err
	}

	inputs := make([]uint64, len(records))
	for i, record := range records {
		v, err := s.codec.DecryptU64(record, req.KeyFor(i))
		if err != nil {
			return failed(req, fmt.Errorf("input %d: %w", i, err)), nil
		}
		inputs[i] = v
	}

	var outputs []uint64
	switch req.Operation {
	case model.OpConfidentialTransfer:
		outputs, err = transfer(inputs)
	case model.OpBatchPayroll:
		outputs = inputs
	case model.OpQueryBalance:
		outputs = inputs[:1]
	case model.OpValidateAmount:
		outputs, err = validateAmount(inputs)
	case model.OpAddValues:
		outputs, err = addValues(inputs)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Operation)
	}
	if err != nil {
		return failed(req, err), nil
	}

	sealed := make([][]byte, len(outputs))
	for i, v := range outputs {
		sealed[i], err = s.codec.EncryptU64(v, req.KeyFor(i))
		if err != nil {
			return nil, err
		}
	}
	packed, err := batch.Pack(sealed)
	if err != nil {
		return nil, err
	}

	logger.Info("computation simulated")
	return &model.ComputationResult{
		ComputationID: req.ComputationID,
		Status:        model.ResultStatusCompleted,
		Output:        packed,
		Count:         len(sealed),
	}, nil
}

func failed(req *model.ComputationRequest, err error) *model.ComputationResult {
	return &model.ComputationResult{
		ComputationID: req.ComputationID,
		Status:        model.ResultStatusFailed,
		Error:         err.Error(),
	}
}

// transfer settles a single amount as is. Given a balance and an amount it
// returns the new balance, or the unchanged balance if it is insufficient.
func transfer(inputs []uint64) ([]uint64, error) {
	switch len(inputs) {
	case 1:
		return inputs, nil
	case 2:
		balance, amount := inputs[0], inputs[1]
		if balance < amount {
			return []uint64{balance}, nil
		}
		return []uint64{balance - amount}, nil
	default:
		return nil, fmt.Errorf("%s takes 1 or 2 inputs, got %d", model.OpConfidentialTransfer, len(inputs))
	}
}

// validateAmount yields 1 when 0 < amount <= max, else 0.
func validateAmount(inputs []uint64) ([]uint64, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%s takes 2 inputs: amount, max amount", model.OpValidateAmount)
	}
	if inputs[0] > 0 && inputs[0] <= inputs[1] {
		return []uint64{1}, nil
	}
	return []uint64{0}, nil
}

// addValues wraps on overflow.
func addValues(inputs []uint64) ([]uint64, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%s takes 2 inputs", model.OpAddValues)
	}
	return []uint64{inputs[0] + inputs[1]}, nil
}
