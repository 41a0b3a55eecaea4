package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitForComputation(t *testing.T) {
	h := newHarness(t, nil, Options{})
	ctx := context.Background()
	p := h.create(t, "wallet123", 10000)

	got, err := h.svc.SubmitForComputation(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusProcessing, got.Status)
	assert.Equal(t, model.ComputationCompleted, got.ComputationStatus)
	assert.True(t, strings.HasPrefix(got.ComputationID, "comp_"))
	assert.Equal(t, 1, got.Attempts)

	req := h.mpc.lastRequest()
	assert.Equal(t, model.OpConfidentialTransfer, req.Operation)
	assert.Equal(t, 1, req.Count)
	assert.Len(t, req.Batch, crypto.CiphertextSize)
	assert.Equal(t, "wallet123", req.KeyRef)
	assert.Equal(t, p.ID, req.ReferenceID)
	assert.Equal(t, got.ComputationID, req.ComputationID)

	settled, err := h.codec.DecryptU64String(got.ResultCommitment, "wallet123")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), settled)

	byComp, err := h.store.FindByComputationID(ctx, got.ComputationID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byComp.ID)
}

func TestDoubleSubmitIsRejected(t *testing.T) {
	h := newHarness(t, nil, Options{})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	_, err := h.svc.SubmitForComputation(ctx, p.ID)
	require.NoError(t, err)

	_, err = h.svc.SubmitForComputation(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, int32(1), h.mpc.calls.Load())
	assert.Equal(t, 1, h.get(t, p.ID).Attempts)
}

func TestConcurrentSubmitCallsMPCOnce(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	h := newHarness(t, blockingClient(newSimulator(t), started, release), Options{})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		dupes   int
		unknown []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.SubmitForComputation(ctx, p.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadySubmitted):
				dupes++
			default:
				unknown = append(unknown, err)
			}
		}()
	}

	<-started
	close(release)
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, dupes)
	assert.Equal(t, int32(1), h.mpc.calls.Load())
	assert.Equal(t, model.ComputationCompleted, h.get(t, p.ID).ComputationStatus)
}

func TestFailedComputationIsResubmittable(t *testing.T) {
	var fail = true
	sim := newSimulator(t)
	flaky := mpcFunc(func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
		if fail {
			return nil, errors.New("connection reset")
		}
		return sim.Execute(ctx, req)
	})
	h := newHarness(t, flaky, Options{})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	got, err := h.svc.SubmitForComputation(ctx, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrComputation)
	assert.True(t, IsRetriable(err))
	require.NotNil(t, got)
	assert.Equal(t, model.IntentStatusPending, got.Status)
	assert.Equal(t, model.ComputationFailed, got.ComputationStatus)
	assert.Contains(t, got.ComputationError, "connection reset")
	assert.Empty(t, got.ResultCommitment)

	fail = false
	got, err = h.svc.SubmitForComputation(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusProcessing, got.Status)
	assert.Equal(t, model.ComputationCompleted, got.ComputationStatus)
	assert.Empty(t, got.ComputationError)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, int32(2), h.mpc.calls.Load())
}

func TestFailureBecomesTerminalAfterMaxAttempts(t *testing.T) {
	h := newHarness(t, failingClient("cluster unavailable"), Options{MaxAttempts: 2})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	got, err := h.svc.SubmitForComputation(ctx, p.ID)
	assert.True(t, IsRetriable(err))
	assert.Equal(t, model.IntentStatusPending, got.Status)

	got, err = h.svc.SubmitForComputation(ctx, p.ID)
	assert.ErrorIs(t, err, ErrComputation)
	assert.False(t, IsRetriable(err))
	assert.Equal(t, model.IntentStatusFailed, got.Status)
	assert.Equal(t, "cluster unavailable", got.ComputationError)

	_, err = h.svc.SubmitForComputation(ctx, p.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, int32(2), h.mpc.calls.Load())
}

func TestTimeoutIsRetriableFailure(t *testing.T) {
	h := newHarness(t, hangingClient(), Options{Timeout: 20 * time.Millisecond})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	got, err := h.svc.SubmitForComputation(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, IsRetriable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.IntentStatusPending, got.Status)
	assert.Equal(t, model.ComputationFailed, got.ComputationStatus)
	assert.Contains(t, got.ComputationError, "timed out")
	assert.NotEqual(t, model.IntentStatusConfirmed, h.get(t, p.ID).Status)
}

func TestAmbiguousResultsAreNeverConfirmed(t *testing.T) {
	sim := newSimulator(t)
	tests := []struct {
		name      string
		mutate    func(*model.ComputationResult) *model.ComputationResult
		retriable bool
	}{
		{"nil result", func(*model.ComputationResult) *model.ComputationResult { return nil }, true},
		{"pending status", func(r *model.ComputationResult) *model.ComputationResult { r.Status = "pending"; return r }, true},
		{"error with completed status", func(r *model.ComputationResult) *model.ComputationResult { r.Error = "partial"; return r }, true},
		{"other computation", func(r *model.ComputationResult) *model.ComputationResult { r.ComputationID = "comp_other"; return r }, true},
		{"wrong count", func(r *model.ComputationResult) *model.ComputationResult { r.Count = 2; return r }, false},
		{"truncated output", func(r *model.ComputationResult) *model.ComputationResult { r.Output = r.Output[:20]; return r }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := mpcFunc(func(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
				res, err := sim.Execute(ctx, req)
				require.NoError(t, err)
				return tt.mutate(res), nil
			})
			h := newHarness(t, bad, Options{AutoConfirm: true})
			p := h.create(t, "wallet123", 100)

			got, err := h.svc.SubmitForComputation(context.Background(), p.ID)
			assert.ErrorIs(t, err, ErrComputation)
			assert.Equal(t, tt.retriable, IsRetriable(err))
			assert.Equal(t, model.ComputationFailed, got.ComputationStatus)
			assert.Empty(t, got.ResultCommitment)
			if tt.retriable {
				assert.Equal(t, model.IntentStatusPending, got.Status)
			} else {
				assert.Equal(t, model.IntentStatusFailed, got.Status)
			}
		})
	}
}

func TestAutoConfirm(t *testing.T) {
	h := newHarness(t, nil, Options{AutoConfirm: true})
	p := h.create(t, "wallet123", 100)

	got, err := h.svc.SubmitForComputation(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusConfirmed, got.Status)
	assert.Equal(t, model.ComputationCompleted, got.ComputationStatus)
}

func TestLateResultAfterCancelIsDiscarded(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	h := newHarness(t, blockingClient(newSimulator(t), started, release), Options{AutoConfirm: true})
	ctx := context.Background()
	p := h.create(t, "wallet123", 100)

	type outcome struct {
		intent *model.PaymentIntent
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		intent, err := h.svc.SubmitForComputation(ctx, p.ID)
		done <- outcome{intent, err}
	}()

	<-started
	cancelled, err := h.svc.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusCancelled, cancelled.Status)

	close(release)
	res := <-done
	assert.ErrorIs(t, res.err, ErrResultDiscarded)
	require.NotNil(t, res.intent)
	assert.Equal(t, model.IntentStatusCancelled, res.intent.Status)

	stored := h.get(t, p.ID)
	assert.Equal(t, model.IntentStatusCancelled, stored.Status)
	assert.Empty(t, stored.ResultCommitment)
	assert.NotEqual(t, model.ComputationCompleted, stored.ComputationStatus)
}

func TestCallerCancellationStillRecordsOutcome(t *testing.T) {
	h := newHarness(t, hangingClient(), Options{Timeout: time.Minute})
	p := h.create(t, "wallet123", 100)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := h.svc.SubmitForComputation(ctx, p.ID)
	assert.ErrorIs(t, err, context.Canceled)

	stored := h.get(t, p.ID)
	assert.Equal(t, model.IntentStatusPending, stored.Status)
	assert.Equal(t, model.ComputationFailed, stored.ComputationStatus)
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	submitted := func(t *testing.T, h *harness) *model.PaymentIntent {
		t.Helper()
		p := h.create(t, "wallet123", 100)
		p, err := h.svc.SubmitForComputation(ctx, p.ID)
		require.NoError(t, err)
		return p
	}

	t.Run("finalized from processing", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)

		got, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{
			ComputationID:         p.ComputationID,
			Status:                "FINALIZED",
			FinalizationSignature: "5xyz",
		})
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusFinalized, got.Status)
		assert.Equal(t, "5xyz", got.FinalizationSignature)
		assert.NotNil(t, got.FinalizedAt)
	})

	t.Run("finalized from confirmed", func(t *testing.T) {
		h := newHarness(t, nil, Options{AutoConfirm: true})
		p := submitted(t, h)
		require.Equal(t, model.IntentStatusConfirmed, p.Status)

		got, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: p.ComputationID, Status: model.CallbackFinalized})
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusFinalized, got.Status)
	})

	t.Run("failed", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)

		got, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{
			ComputationID: p.ComputationID,
			Status:        model.CallbackFailed,
			Error:         "node quorum lost",
		})
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusPending, got.Status)
		assert.Equal(t, model.ComputationFailed, got.ComputationStatus)
		assert.Equal(t, "node quorum lost", got.ComputationError)
	})

	t.Run("cancelled", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)

		got, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: p.ComputationID, Status: model.CallbackCancelled})
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusCancelled, got.Status)
	})

	t.Run("stale computation", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)
		stale := p.ComputationID

		_, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: stale, Status: model.CallbackFailed})
		require.NoError(t, err)
		p, err = h.svc.SubmitForComputation(ctx, p.ID)
		require.NoError(t, err)
		require.NotEqual(t, stale, p.ComputationID)

		_, err = h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: stale, Status: model.CallbackFinalized})
		assert.ErrorIs(t, err, ErrResultDiscarded)
		assert.Equal(t, model.IntentStatusProcessing, h.get(t, p.ID).Status)
	})

	t.Run("cancelled for stale computation", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)
		stale := p.ComputationID

		_, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: stale, Status: model.CallbackFailed})
		require.NoError(t, err)
		p, err = h.svc.SubmitForComputation(ctx, p.ID)
		require.NoError(t, err)

		got, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: stale, Status: model.CallbackCancelled})
		assert.ErrorIs(t, err, ErrResultDiscarded)
		require.NotNil(t, got)
		assert.Equal(t, model.IntentStatusProcessing, got.Status)
		assert.Equal(t, model.IntentStatusProcessing, h.get(t, p.ID).Status)
	})

	t.Run("finalized terminal intent", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)
		_, err := h.svc.Cancel(ctx, p.ID)
		require.NoError(t, err)

		_, err = h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: p.ComputationID, Status: model.CallbackFinalized})
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, model.IntentStatusCancelled, h.get(t, p.ID).Status)
	})

	t.Run("unknown", func(t *testing.T) {
		h := newHarness(t, nil, Options{})
		p := submitted(t, h)

		_, err := h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: "comp_missing", Status: model.CallbackFinalized})
		assert.ErrorIs(t, err, model.ErrNotFound)

		_, err = h.svc.HandleCallback(ctx, &model.ComputationCallback{ComputationID: p.ComputationID, Status: "exploded"})
		assert.ErrorContains(t, err, "unknown callback status")
	})
}
