// Package events provides the in-process bus dispatch modules publish on.
// Event payloads live with the modules that own them; this package carries
// only the bus contracts.
package events

import (
	"context"
	"time"
)

// Event is implemented by every dispatch event payload.
type Event interface {
	// EventName uniquely identifies the event type for subscription.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the occurrence timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler consumes events it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// Bus publishes dispatch events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every subscriber of its name.
	// Delivery is asynchronous; handler failures never reach the caller.
	Publish(ctx context.Context, event Event)

	// PublishSync waits for every handler and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name the event reports
	// from EventName.
	Subscribe(eventName string, handler Handler)
}
