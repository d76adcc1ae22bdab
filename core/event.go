package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is a typed notification with payload describing something that
// happened upstream (a message arrived, a deal moved, sentiment was
// detected). Events are ephemeral: they are created on emit, queued,
// processed once and discarded. They are never persisted.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an event of the given type carrying the payload. An ID and
// a UTC timestamp are assigned automatically.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:        NewID(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for events and rules.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
