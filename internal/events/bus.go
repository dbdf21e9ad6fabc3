package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. kelindar's generic API needs the
// concrete type at the call site, so Publish and Subscribe enumerate the
// closed event set.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish publishes an event to all subscribers.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ArtifactInstalledEvent:
		event.Publish(b.dispatcher, e)
	case ArtifactSkippedEvent:
		event.Publish(b.dispatcher, e)
	case AdvisoryEvent:
		event.Publish(b.dispatcher, e)
	case DeviceDiscoveredEvent:
		event.Publish(b.dispatcher, e)
	case RelayInstalledEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects the
// events it receives. Returns an unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ArtifactInstalledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ArtifactSkippedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AdvisoryEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceDiscoveredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RelayInstalledEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
