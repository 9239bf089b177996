// Package events carries employee and credential events from the services to
// their subscribers. The audit service is the main subscriber: every event in
// AuditEvents ends up as one structured audit log line.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AuditEvents lists every event type that is written to the audit log.
var AuditEvents = []EventType{
	EventEmployeeCreated,
	EventEmployeeUpdated,
	EventSalaryUpdated,
	EventServiceTokenIssued,
}

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher publishes events to the handlers subscribed to their type.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// SubscribeAll registers handler for each of types.
func SubscribeAll(d Dispatcher, handler EventHandler, types ...EventType) {
	for _, t := range types {
		d.Subscribe(t, handler)
	}
}

type inMemoryDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a synchronous dispatcher. Publish returns once
// every handler for the event has run, in subscription order.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{handlers: make(map[EventType][]EventHandler)}
}

// Publish runs every handler even when an earlier one fails; the failures are
// joined, each tagged with the event type and handler position.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribed := append([]EventHandler(nil), d.handlers[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subscribed {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	d.mu.Unlock()
}
