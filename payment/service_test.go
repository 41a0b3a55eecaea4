package payment

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AlexZinkM/confidential-pay/internal/client"
	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/model"
	"github.com/AlexZinkM/confidential-pay/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	recipientAddr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	otherAddr     = "11111111111111111111111111111111"
)

// mpcFunc adapts a function to MPCClient.
type mpcFunc func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error)

func (f mpcFunc) Execute(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
	return f(ctx, req)
}

// countingClient records every request it forwards.
type countingClient struct {
	next  MPCClient
	calls atomic.Int32

	mu       sync.Mutex
	requests []*model.ComputationRequest
}

func (c *countingClient) Execute(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return c.next.Execute(ctx, req)
}

func (c *countingClient) lastRequest() *model.ComputationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

type harness struct {
	svc   *Service
	store *store.IntentStore
	codec *crypto.Codec
	sim   *client.Simulator
	mpc   *countingClient
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCodec(t *testing.T) *crypto.Codec {
	t.Helper()
	master := make([]byte, crypto.MasterKeySize)
	for i := range master {
		master[i] = byte(0x40 + i)
	}
	codec, err := crypto.NewCodec(master)
	require.NoError(t, err)
	return codec
}

// newHarness wires a service over an in-memory store. A nil mpc uses the
// local simulator.
func newHarness(t *testing.T, mpc MPCClient, opts Options) *harness {
	t.Helper()

	st, err := store.NewIntentStore(store.StoreConfig{InMemory: true, Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	codec := testCodec(t)
	sim := client.NewSimulator(codec, quietLogger())
	if mpc == nil {
		mpc = sim
	}
	counting := &countingClient{next: mpc}

	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return &harness{
		svc:   NewService(codec, st, counting, opts),
		store: st,
		codec: codec,
		sim:   sim,
		mpc:   counting,
	}
}

func (h *harness) create(t *testing.T, sender string, amount uint64) *model.PaymentIntent {
	t.Helper()
	p, err := h.svc.Create(context.Background(), CreateParams{
		MerchantID: "merchant_1",
		Sender:     sender,
		Recipient:  recipientAddr,
		Amount:     amount,
		Currency:   "USDC",
	})
	require.NoError(t, err)
	return p
}

func (h *harness) get(t *testing.T, id string) *model.PaymentIntent {
	t.Helper()
	p, err := h.store.GetIntentByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// newSimulator returns a simulator sharing the harness master key.
func newSimulator(t *testing.T) *client.Simulator {
	return client.NewSimulator(testCodec(t), quietLogger())
}

// blockingClient holds each call until release is closed, then delegates.
func blockingClient(next MPCClient, started chan<- string, release <-chan struct{}) MPCClient {
	return mpcFunc(func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
		started <- req.ComputationID
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return next.Execute(ctx, req)
	})
}

func failingClient(msg string) MPCClient {
	return mpcFunc(func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
		return &model.ComputationResult{
			ComputationID: req.ComputationID,
			Status:        model.ResultStatusFailed,
			Error:         msg,
		}, nil
	})
}

func hangingClient() MPCClient {
	return mpcFunc(func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}
