package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/cache"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) RecordEventDelivery(_ context.Context, _ string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type failingStore struct {
	shared.IdempotencyStore
}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func newIdempotentFixture(t *testing.T) (*IdempotentHandler, *testHandler, *cache.InMemoryIdempotencyStore, *outcomeRecorder) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	inner := newTestHandler()
	rec := &outcomeRecorder{}
	return NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryRecorder(rec)), inner, store, rec
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	h, inner, _, rec := newIdempotentFixture(t)
	evt := newTestEvent(finance.EventTypePaymentRecorded, 1)

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, []string{telemetry.DeliveryHandled, telemetry.DeliveryDuplicate}, rec.outcomes)
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	h, inner, store, rec := newIdempotentFixture(t)
	inner.err = errors.New("kafka unavailable")
	evt := newTestEvent(finance.EventTypePaymentRecorded, 1)

	require.Error(t, h.Handle(context.Background(), evt))

	held, err := store.IsProcessed(context.Background(), eventKeyPrefix+evt.EventID().String())
	require.NoError(t, err)
	assert.False(t, held)

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, []string{telemetry.DeliveryFailed, telemetry.DeliveryHandled}, rec.outcomes)
}

func TestIdempotentHandler_StoreUnavailable(t *testing.T) {
	inner := newTestHandler()
	h := NewIdempotentHandler(inner, failingStore{}, zap.NewNop())
	evt := newTestEvent(finance.EventTypeDocumentPosted, 3)

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 2)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler()
	h := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	evt := newTestEvent(finance.EventTypePaymentRecorded, 1)

	_ = h.Handle(context.Background(), evt)
	_ = h.Handle(context.Background(), evt)

	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, 0, store.Size())
	assert.Equal(t, inner.EventTypes(), h.EventTypes())
}
