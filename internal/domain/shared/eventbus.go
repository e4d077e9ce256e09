package shared

import "context"

// EventHandler reacts to ledger events. Handlers run after the transaction
// that raised the event has committed, so a handler error never undoes a
// payment or a budget change.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types to receive; empty means all of them
	EventTypes() []string
}

// EventPublisher is what application services depend on. Services publish
// only committed events and ignore publish errors beyond logging them.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is an EventPublisher that handlers can subscribe to
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
