package event

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingHandler writes one structured line per event. It is the default
// subscriber when no broker is configured.
type LoggingHandler struct{}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler() *LoggingHandler {
	return &LoggingHandler{}
}

// EventTypes returns nil: every event is logged
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.L(ctx).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.Int64("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
