// Package task defines the todo item model, its SQLite persistence and the
// user-scoped service the HTTP API and the command interpreter share.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits enforced on every write.
const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 1024
)

var (
	// ErrNotFound is returned when no task with the given id is owned by the
	// requesting user.
	ErrNotFound = errors.New("task not found")

	// ErrValidation is returned when a write carries an empty or oversized
	// field.
	ErrValidation = errors.New("invalid task")
)

// Task is a single todo item owned by one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists and retrieves tasks. Every lookup is scoped to a user.
type Store interface {
	// Insert persists a new task and sets its ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, t *Task) error

	// Get retrieves a task by ID.
	Get(ctx context.Context, userID string, id int64) (*Task, error)

	// Update saves changes to an existing task.
	Update(ctx context.Context, t *Task) error

	// List returns the user's tasks matching filter, newest first.
	List(ctx context.Context, userID string, filter Filter) ([]*Task, error)

	// Delete removes a task by ID.
	Delete(ctx context.Context, userID string, id int64) error
}

// Filter controls which tasks are returned by List.
type Filter struct {
	Completed *bool `json:"completed,omitempty"`
	Limit     int   `json:"limit,omitempty"`
	Offset    int   `json:"offset,omitempty"`
}

// Patch describes a partial update. Nil fields are left unchanged; an empty
// Description clears it.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Status values reported in an Outcome.
const (
	StatusCreated   = "created"
	StatusCompleted = "completed"
	StatusDeleted   = "deleted"
	StatusUpdated   = "updated"
)

// Outcome is the summary of a single mutation, as reported to chat clients.
type Outcome struct {
	TaskID      int64   `json:"task_id"`
	Status      string  `json:"status"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
}

// NewOutcome summarises t after a mutation with the given status.
func NewOutcome(status string, t *Task) Outcome {
	return Outcome{
		TaskID:      t.ID,
		Status:      status,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// normalizeTitle trims and checks a title.
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrValidation, MaxTitleLen)
	}
	return title, nil
}

// normalizeDescription trims a description; empty becomes nil.
func normalizeDescription(desc *string) (*string, error) {
	if desc == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*desc)
	if d == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLen {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrValidation, MaxDescriptionLen)
	}
	return &d, nil
}
