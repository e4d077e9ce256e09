package event

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards committed ledger events to a Kafka topic. It is
// subscribed to the in-memory bus as a wildcard handler. Messages are keyed
// by aggregate so all events for one document or budget land on the same
// partition in order.
type KafkaPublisher struct {
	writer     MessageWriter
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, serializer *EventSerializer, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(writer, serializer, logger)
}

// NewKafkaPublisherWithWriter creates a publisher over an existing writer
func NewKafkaPublisherWithWriter(writer MessageWriter, serializer *EventSerializer, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, serializer: serializer, logger: logger}
}

// EventTypes returns nil: the publisher forwards every event
func (p *KafkaPublisher) EventTypes() []string {
	return nil
}

// Handle writes one event to Kafka
func (p *KafkaPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, err := p.toMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to kafka: %w", event.EventType(), err)
	}
	p.logger.Debug("event forwarded to kafka",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
	)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) toMessage(event shared.DomainEvent) (kafka.Message, error) {
	body, err := p.serializer.Serialize(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}
	return kafka.Message{
		Key:   []byte(event.AggregateType() + ":" + strconv.FormatInt(event.AggregateID(), 10)),
		Value: body,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "event_id", Value: []byte(event.EventID().String())},
		},
	}, nil
}

var _ shared.EventHandler = (*KafkaPublisher)(nil)
