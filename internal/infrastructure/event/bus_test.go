package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, aggregateID int64) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "PayableDocument", aggregateID),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(finance.EventTypePaymentRecorded)
	bus.Subscribe(handler)

	first := newTestEvent(finance.EventTypePaymentRecorded, 1)
	second := newTestEvent(finance.EventTypePaymentRecorded, 2)
	require.NoError(t, bus.Publish(context.Background(), first, second))

	assert.Equal(t, []shared.DomainEvent{first, second}, handler.getHandled())
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	payments := newTestHandler(finance.EventTypePaymentRecorded)
	postings := newTestHandler(finance.EventTypeDocumentPosted)
	everything := newTestHandler()
	bus.Subscribe(payments)
	bus.Subscribe(postings)
	bus.Subscribe(everything)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(finance.EventTypeDocumentPosted, 1)))

	assert.Empty(t, payments.getHandled())
	assert.Len(t, postings.getHandled(), 1)
	assert.Len(t, everything.getHandled(), 1)
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler(finance.EventTypePaymentRecorded)
	failing.err = errors.New("broker down")
	panicking := newTestHandler(finance.EventTypePaymentRecorded)
	panicking.panicWith = "boom"
	healthy := newTestHandler(finance.EventTypePaymentRecorded)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent(finance.EventTypePaymentRecorded, 1))

	require.NoError(t, err)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(finance.EventTypePaymentRecorded)
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent(finance.EventTypePaymentRecorded, 1))

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent(finance.EventTypePaymentRecorded, 2))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.IsRunning())
}
