// Package payment drives confidential payment intents through their
// lifecycle and the MPC computation that settles them.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/common"
	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MPCClient executes one confidential computation on the MPC network.
type MPCClient interface {
	Execute(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error)
}

// Store persists payment intents. UpdateIntentStatus must apply mutate to the
// latest committed state atomically, so a guard inside mutate acts as a
// conditional update.
type Store interface {
	CreateIntent(ctx context.Context, intent *model.PaymentIntent) error
	GetIntentByID(ctx context.Context, id string) (*model.PaymentIntent, error)
	UpdateIntentStatus(ctx context.Context, id string, mutate func(*model.PaymentIntent) error) (*model.PaymentIntent, error)
	FindByComputationID(ctx context.Context, computationID string) (*model.PaymentIntent, error)
	ListIntents(ctx context.Context, filter model.IntentFilter) ([]*model.PaymentIntent, int, error)
}

// SettlementVerifier confirms that a finalization signature refers to a
// settled on-chain transaction.
type SettlementVerifier interface {
	VerifySettlement(ctx context.Context, signature string) error
}

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
)

type Options struct {
	Timeout     time.Duration      // bound on one MPC call
	MaxAttempts int                // submissions before a retriable failure becomes terminal
	AutoConfirm bool               // confirm as soon as the computation completes
	Settlement  SettlementVerifier // optional; checks finalization signatures
	Logger      *logrus.Logger
	Metrics     *Metrics
	Now         func() time.Time
}

// Service is the payment intent orchestrator.
type Service struct {
	codec   *crypto.Codec
	store   Store
	mpc     MPCClient
	opts    Options
	log     *logrus.Logger
	metrics *Metrics
}

func NewService(codec *crypto.Codec, store Store, mpc MPCClient, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		codec:   codec,
		store:   store,
		mpc:     mpc,
		opts:    opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// CreateParams describes a new payment intent. Amount is in minor units of
// Currency. Sender is the key owner the amount is encrypted for.
type CreateParams struct {
	MerchantID    string
	CustomerID    string
	Sender        string
	Recipient     string
	Amount        uint64
	Currency      string
	Description   string
	Metadata      map[string]string
	UserSignature string
}

// Create encrypts the amount for the sender and stores a PENDING intent.
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.PaymentIntent, error) {
	if params.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if params.Sender == "" {
		return nil, ErrMissingSender
	}
	if !isValidSolanaAddress(params.Recipient) {
		return nil, ErrInvalidRecipient
	}
	if _, err := common.CurrencyDecimals(params.Currency); err != nil {
		return nil, err
	}

	commitment, err := s.codec.EncryptU64String(params.Amount, params.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt amount: %w", err)
	}

	metadata := make(map[string]string, len(params.Metadata)+3)
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	metadata[model.MetadataEncrypted] = "true"
	metadata[model.MetadataEncryptionKey] = params.Sender
	if params.UserSignature != "" {
		metadata[model.MetadataMerchantSignature] = params.UserSignature
	}

	now := s.opts.Now()
	intent := &model.PaymentIntent{
		ID:                "pi_" + uuid.NewString(),
		MerchantID:        params.MerchantID,
		CustomerID:        params.CustomerID,
		Sender:            params.Sender,
		Recipient:         params.Recipient,
		Currency:          params.Currency,
		Description:       params.Description,
		AmountCommitment:  commitment,
		Status:            model.IntentStatusPending,
		ComputationStatus: model.ComputationQueued,
		Metadata:          metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	s.metrics.IntentsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"intent":   intent.ID,
		"merchant": intent.MerchantID,
		"currency": intent.Currency,
	}).Info("payment intent created")

	return intent, nil
}

// Get returns one intent.
func (s *Service) Get(ctx context.Context, id string) (*model.PaymentIntent, error) {
	return s.store.GetIntentByID(ctx, id)
}

// List returns a filtered page of intents and the total match count.
func (s *Service) List(ctx context.Context, filter model.IntentFilter) ([]*model.PaymentIntent, int, error) {
	return s.store.ListIntents(ctx, filter)
}

// Confirm moves an intent whose computation completed to CONFIRMED and
// records the settlement proof, if any.
func (s *Service) Confirm(ctx context.Context, id, proof string) (*model.PaymentIntent, error) {
	return s.transition(ctx, id, EventConfirm, func(p *model.PaymentIntent) {
		if proof != "" {
			p.SettlementProof = proof
		}
	})
}

// Finalize moves a CONFIRMED intent to FINALIZED. With a SettlementVerifier
// configured the signature must belong to a confirmed transaction.
func (s *Service) Finalize(ctx context.Context, id, signature string) (*model.PaymentIntent, error) {
	if err := s.verifySettlement(ctx, id, signature); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, EventFinalize, func(p *model.PaymentIntent) {
		now := s.opts.Now()
		p.FinalizationSignature = signature
		p.FinalizedAt = &now
	})
}

// Cancel moves a PENDING or PROCESSING intent to CANCELLED. An in-flight
// computation is not interrupted; its result is discarded on arrival.
func (s *Service) Cancel(ctx context.Context, id string) (*model.PaymentIntent, error) {
	return s.transition(ctx, id, EventCancel, nil)
}

// transition applies ev under the store's conditional update and runs
// extra on success.
func (s *Service) transition(
	ctx context.Context,
	id string,
	ev Event,
	extra func(*model.PaymentIntent),
) (*model.PaymentIntent, error) {
	updated, err := s.store.UpdateIntentStatus(ctx, id, func(p *model.PaymentIntent) error {
		if err := apply(p, ev); err != nil {
			return err
		}
		if extra != nil {
			extra(p)
		}
		p.UpdatedAt = s.opts.Now()
		return nil
	})
	if err != nil {
		s.observeRejection(ev, err)
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(ev)).Inc()
	s.log.WithFields(logrus.Fields{"intent": id, "status": updated.Status}).Infof("intent %s", ev)
	return updated, nil
}

// RevealAmount decrypts the intent amount for userID. It fails with
// crypto.ErrAuthentication when userID does not own the commitment.
func (s *Service) RevealAmount(ctx context.Context, id, userID string) (uint64, error) {
	intent, err := s.store.GetIntentByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.codec.DecryptU64String(intent.AmountCommitment, userID)
}

// Reveal renders the intent amount for display. A decryption failure hides
// the amount instead of showing zero or a guessed value. userID is not
// authenticated here; callers must establish that it belongs to the caller.
func (s *Service) Reveal(ctx context.Context, id, userID string) (*model.RevealResponse, error) {
	intent, err := s.store.GetIntentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &model.RevealResponse{
		ID:       intent.ID,
		Currency: intent.Currency,
	}

	amount, err := s.codec.DecryptU64String(intent.AmountCommitment, userID)
	if err != nil {
		if !errors.Is(err, crypto.ErrAuthentication) && !errors.Is(err, crypto.ErrMissingUser) {
			return nil, err
		}
		s.log.WithField("intent", id).Warn("amount decryption failed, hiding amount")
		resp.AmountHidden = true
		resp.Error = crypto.ErrAuthentication.Error()
		return resp, nil
	}

	display, err := common.FromMinorUnits(intent.Currency, amount)
	if err != nil {
		return nil, err
	}
	resp.Amount = display
	resp.AmountMinor = strconv.FormatUint(amount, 10)
	return resp, nil
}

func (s *Service) verifySettlement(ctx context.Context, id, signature string) error {
	if s.opts.Settlement == nil {
		return nil
	}
	if err := s.opts.Settlement.VerifySettlement(ctx, signature); err != nil {
		s.log.WithError(err).WithField("intent", id).Warn("settlement verification failed")
		return fmt.Errorf("%w: %w", ErrUnverifiedSettlement, err)
	}
	return nil
}

func (s *Service) observeRejection(ev Event, err error) {
	if IsStateError(err) {
		s.metrics.Rejections.WithLabelValues(string(ev)).Inc()
	}
}

func newComputationID() string {
	return "comp_" + uuid.NewString()
}
