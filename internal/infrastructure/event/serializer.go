package event

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/bizledger/backend/internal/domain/shared"
)

// EventFactory returns an empty event to decode into
type EventFactory func() shared.DomainEvent

// EventSerializer converts ledger events to their JSON wire form and back.
// The wire form is the event itself; its "type" field selects the decoder.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]EventFactory
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]EventFactory)}
}

// Register sets the decoder for eventType. Several event types may share
// one Go type.
func (s *EventSerializer) Register(eventType string, factory EventFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[eventType] = factory
}

// Serialize encodes an event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data as eventType. The payload's own type must agree.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	if event.EventType() != eventType {
		return nil, fmt.Errorf("payload type %q does not match %s", event.EventType(), eventType)
	}
	return event, nil
}

// Decode reads the event type from the payload and decodes it
func (s *EventSerializer) Decode(data []byte) (shared.DomainEvent, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read event type: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("event payload has no type")
	}
	return s.Deserialize(head.Type, data)
}

// IsRegistered reports whether eventType has a decoder
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
