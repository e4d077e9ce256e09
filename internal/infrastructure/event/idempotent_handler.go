package event

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const eventKeyPrefix = "event:"

// DeliveryRecorder observes what happened to each delivery.
// *telemetry.ReconciliationMetrics satisfies it.
type DeliveryRecorder interface {
	RecordEventDelivery(ctx context.Context, eventType, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordEventDelivery(context.Context, string, string) {}

// IdempotentHandler lets each event ID through to the wrapped handler at
// most once per TTL. It guards the Kafka forwarder so that an event which
// is published again after a retry is not emitted twice downstream.
type IdempotentHandler struct {
	next     shared.EventHandler
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	logger   *zap.Logger
	recorder DeliveryRecorder
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the TTL or disables deduplication
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithDeliveryRecorder reports every delivery outcome to recorder
func WithDeliveryRecorder(recorder DeliveryRecorder) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// NewIdempotentHandler wraps next
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:     next,
		store:    store,
		config:   shared.DefaultIdempotencyConfig(),
		logger:   logger,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event ID, then hands the event on. An unreachable store
// lets the event through. A failed delivery releases the claim so the next
// attempt is not mistaken for a duplicate.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.deliver(ctx, event)
	}

	key := eventKeyPrefix + event.EventID().String()
	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		h.logger.Warn("event idempotency store unavailable, delivering anyway",
			zap.String("event_id", event.EventID().String()), zap.Error(err))
		claimed = true
	}
	if !claimed {
		h.recorder.RecordEventDelivery(ctx, event.EventType(), telemetry.DeliveryDuplicate)
		h.logger.Debug("duplicate event skipped", zap.String("event_id", event.EventID().String()))
		return nil
	}

	if err := h.deliver(ctx, event); err != nil {
		if rerr := h.store.Release(context.WithoutCancel(ctx), key); rerr != nil {
			h.logger.Warn("failed to release event claim",
				zap.String("event_id", event.EventID().String()), zap.Error(rerr))
		}
		return err
	}
	return nil
}

func (h *IdempotentHandler) deliver(ctx context.Context, event shared.DomainEvent) error {
	if err := h.next.Handle(ctx, event); err != nil {
		h.recorder.RecordEventDelivery(ctx, event.EventType(), telemetry.DeliveryFailed)
		return err
	}
	h.recorder.RecordEventDelivery(ctx, event.EventType(), telemetry.DeliveryHandled)
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
