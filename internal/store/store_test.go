package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *IntentStore {
	t.Helper()
	s, err := NewIntentStore(StoreConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testIntent(id string, created time.Time) *model.PaymentIntent {
	return &model.PaymentIntent{
		ID:                id,
		MerchantID:        "m1",
		Sender:            "sender",
		Recipient:         "recipient",
		Currency:          "USDC",
		AmountCommitment:  "AAAA",
		Status:            model.IntentStatusPending,
		ComputationStatus: model.ComputationQueued,
		Metadata:          map[string]string{model.MetadataEncryptionKey: "sender"},
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := testIntent("pi_1", time.Now().UTC())
	require.NoError(t, s.CreateIntent(ctx, in))

	got, err := s.GetIntentByID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.AmountCommitment, got.AmountCommitment)
	assert.Equal(t, "sender", got.KeyOwner())

	err = s.CreateIntent(ctx, in)
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.GetIntentByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateIntentStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateIntent(ctx, testIntent("pi_1", time.Now())))

	updated, err := s.UpdateIntentStatus(ctx, "pi_1", func(p *model.PaymentIntent) error {
		p.Status = model.IntentStatusProcessing
		p.ComputationID = "comp_1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusProcessing, updated.Status)

	byComp, err := s.FindByComputationID(ctx, "comp_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", byComp.ID)

	_, err = s.FindByComputationID(ctx, "comp_unknown")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateIntentStatusAbortLeavesStateUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateIntent(ctx, testIntent("pi_1", time.Now())))

	boom := errors.New("guard failed")
	_, err := s.UpdateIntentStatus(ctx, "pi_1", func(p *model.PaymentIntent) error {
		p.Status = model.IntentStatusCancelled
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetIntentByID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusPending, got.Status)

	_, err = s.UpdateIntentStatus(ctx, "missing", func(*model.PaymentIntent) error { return nil })
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestConditionalUpdateSingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateIntent(ctx, testIntent("pi_1", time.Now())))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateIntentStatus(ctx, "pi_1", func(p *model.PaymentIntent) error {
				if p.Status != model.IntentStatusPending {
					return errors.New("not pending")
				}
				p.Status = model.IntentStatusProcessing
				return nil
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestListIntents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		in := testIntent(fmt.Sprintf("pi_%d", i), base.Add(time.Duration(i)*time.Minute))
		if i%2 == 1 {
			in.MerchantID = "m2"
		}
		require.NoError(t, s.CreateIntent(ctx, in))
	}

	all, total, err := s.ListIntents(ctx, model.IntentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, all, 5)
	assert.Equal(t, "pi_4", all[0].ID, "newest first")

	page, total, err := s.ListIntents(ctx, model.IntentFilter{MerchantID: "m1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "pi_4", page[0].ID)
	assert.Equal(t, "pi_2", page[1].ID)

	page, _, err = s.ListIntents(ctx, model.IntentFilter{MerchantID: "m1", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "pi_0", page[0].ID)

	page, total, err = s.ListIntents(ctx, model.IntentFilter{Offset: -1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "pi_4", page[0].ID)

	page, _, err = s.ListIntents(ctx, model.IntentFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)

	cancelled := model.IntentStatusCancelled
	page, total, err = s.ListIntents(ctx, model.IntentFilter{Status: &cancelled})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestContextCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetIntentByID(ctx, "pi_1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPersistentStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewIntentStore(StoreConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.CreateIntent(ctx, testIntent("pi_1", time.Now())))
	require.NoError(t, s.Close())

	s, err = NewIntentStore(StoreConfig{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetIntentByID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", got.ID)
}
