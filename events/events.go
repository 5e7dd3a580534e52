// Package events carries task change notifications from the task service to
// live subscribers such as the SSE stream.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of change an event describes.
type Type string

const (
	TypeTaskCreated   Type = "task.created"
	TypeTaskUpdated   Type = "task.updated"
	TypeTaskCompleted Type = "task.completed"
	TypeTaskDeleted   Type = "task.deleted"
)

// Event is a single change notification scoped to one user.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id"`
	TaskID    int64     `json:"task_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New returns an Event with a fresh ID and the current time.
func New(typ Type, userID string, taskID int64, payload any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		UserID:    userID,
		TaskID:    taskID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans events out to the subscribers of the owning user.
type Bus interface {
	// Publish records ev and delivers it to every handler subscribed to
	// ev.UserID.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers a handler for events owned by userID.
	// Returns an unsubscribe function.
	Subscribe(userID string, handler Handler) (unsubscribe func())

	// History returns the most recent events for userID, oldest first.
	History(userID string, limit int) ([]*Event, error)
}
