// Package events provides the task list change notification bus.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of change.
type Type string

const (
	TypeAdded   Type = "added"
	TypeRemoved Type = "removed"
)

// Event records one mutation of the task list.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Task      string    `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}

// New returns an event with a fresh ID and the current time.
func New(t Type, task string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Task:      task,
		Timestamp: time.Now().UTC(),
	}
}

// Handler processes a published event.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans task list changes out to subscribers.
type Bus interface {
	// Publish records ev and delivers it to every subscriber.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers a handler. Returns an unsubscribe function.
	Subscribe(handler Handler) (unsubscribe func())

	// History returns up to limit recent events, oldest first.
	// A limit <= 0 returns all retained events.
	History(limit int) ([]*Event, error)
}
