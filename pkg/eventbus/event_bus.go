// Package eventbus carries campaign and candidate lifecycle events from the
// workflow engine to its subscribers.
package eventbus

import (
	"context"

	"github.com/talentpivot/talentpivot/pkg/events"
)

// Event is any lifecycle event defined in package events.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes lifecycle events. key is the campaign ID so that
// all events of one campaign land on the same partition.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives the decoded event as a pointer to its concrete type.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
