// Package outbox declares how purchase events leave the use cases. Events
// are delivered after the sale they describe has been committed.
package outbox

import "context"

// Event is a named fact about the machine, e.g. "purchase.confirmed".
type Event interface {
	EventName() string
}

// Handler reacts to one event. A returned error is logged and does not
// affect other handlers of the same event.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name. Handlers for one name run concurrently.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
