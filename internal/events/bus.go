// Package events provides the in-process event bus connecting the control
// components to observers (metrics, API event streams) without direct
// coupling.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for typed broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(SceneChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case SceneChangedEvent:
		event.Publish(b.dispatcher, e)
	case TransitionStartedEvent:
		event.Publish(b.dispatcher, e)
	case TransitionFinishedEvent:
		event.Publish(b.dispatcher, e)
	case OutputAddedEvent:
		event.Publish(b.dispatcher, e)
	case BitrateAdjustedEvent:
		event.Publish(b.dispatcher, e)
	case OverlayRotatedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects which
// events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e SceneChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SceneChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TransitionStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TransitionFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OutputAddedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BitrateAdjustedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverlayRotatedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
