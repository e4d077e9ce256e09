package event

import (
	"slices"
	"sync"

	"github.com/bizledger/backend/internal/domain/shared"
)

// subscription binds a handler to a set of event types. A nil set matches
// every event type.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps handlers in subscription order. A ledger event is
// delivered to each matching handler once, in the order the handlers were
// registered, so the audit log handler sees an event before it is forwarded.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event type when
// none are given. Registering a handler again widens its existing
// subscription and keeps its original position.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.subs, func(s subscription) bool { return s.handler == handler })
	if i < 0 {
		r.subs = append(r.subs, subscription{handler: handler, types: map[string]struct{}{}})
		i = len(r.subs) - 1
	}
	sub := &r.subs[i]
	if len(eventTypes) == 0 {
		sub.types = nil
		return
	}
	if sub.types == nil {
		return
	}
	for _, eventType := range eventTypes {
		sub.types[eventType] = struct{}{}
	}
}

// Unregister removes handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// GetHandlers returns the handlers subscribed to eventType in registration order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matches(eventType) {
			result = append(result, s.handler)
		}
	}
	return result
}

// Handlers returns every registered handler in registration order
func (r *HandlerRegistry) Handlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		result = append(result, s.handler)
	}
	return result
}

// Len returns the number of registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
