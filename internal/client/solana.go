package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSettlementNotFound is returned when the cluster does not know the signature
	ErrSettlementNotFound = errors.New("settlement transaction not found")
	// ErrSettlementFailed is returned when the transaction landed with an error
	ErrSettlementFailed = errors.New("settlement transaction failed")
	// ErrSettlementPending is returned when the transaction is not yet confirmed
	ErrSettlementPending = errors.New("settlement transaction not confirmed")
)

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient *rpc.Client
	rpcURL    string
	log       *logrus.Logger
}

// NewSolanaClient creates a new Solana client for rpcURL.
func NewSolanaClient(rpcURL string, logger *logrus.Logger) *SolanaClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		log:       logger,
	}
}

// VerifySettlement checks that signature is a confirmed or finalized
// transaction that executed without error.
func (c *SolanaClient) VerifySettlement(ctx context.Context, signature string) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}

	// searchTransactionHistory: settlements may be older than the status cache
	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return ErrSettlementNotFound
	}

	status := out.Value[0]
	if status.Err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementFailed, status.Err)
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
	default:
		return fmt.Errorf("%w: status %q", ErrSettlementPending, status.ConfirmationStatus)
	}

	c.log.WithFields(logrus.Fields{
		"signature": signature,
		"slot":      status.Slot,
		"status":    status.ConfirmationStatus,
	}).Debug("settlement verified")
	return nil
}
