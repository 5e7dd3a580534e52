package task

import (
	"context"
	"log/slog"

	"github.com/GoCodeAlone/todochat/events"
)

// Service applies validation on top of a Store and publishes a change event
// for every successful mutation.
type Service struct {
	store  Store
	bus    events.Bus
	logger *slog.Logger
}

// NewService creates a Service. bus may be nil.
func NewService(store Store, bus events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bus: bus, logger: logger}
}

// Create validates and persists a new pending task for userID.
func (s *Service) Create(ctx context.Context, userID, title string, description *string) (*Task, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(description)
	if err != nil {
		return nil, err
	}
	t := &Task{UserID: userID, Title: title, Description: desc}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeTaskCreated, t)
	return t, nil
}

// Get returns one of the user's tasks.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*Task, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns the user's tasks, newest first.
func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]*Task, error) {
	return s.store.List(ctx, userID, filter)
}

// Update applies p to the task. A nil field is left unchanged and an empty
// description clears it.
func (s *Service) Update(ctx context.Context, userID string, id int64, p Patch) (*Task, error) {
	t, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		if err != nil {
			return nil, err
		}
		t.Title = title
	}
	if p.Description != nil {
		desc, err := normalizeDescription(p.Description)
		if err != nil {
			return nil, err
		}
		t.Description = desc
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeTaskUpdated, t)
	return t, nil
}

// Replace overwrites every mutable field of the task.
func (s *Service) Replace(ctx context.Context, userID string, id int64, title string, description *string, completed bool) (*Task, error) {
	empty := ""
	if description == nil {
		description = &empty
	}
	return s.Update(ctx, userID, id, Patch{Title: &title, Description: description, Completed: &completed})
}

// SetCompleted sets the completion flag of the task.
func (s *Service) SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*Task, error) {
	t, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t.Completed = completed
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	typ := events.TypeTaskUpdated
	if completed {
		typ = events.TypeTaskCompleted
	}
	s.publish(ctx, typ, t)
	return t, nil
}

// Complete marks the task as completed.
func (s *Service) Complete(ctx context.Context, userID string, id int64) (*Task, error) {
	return s.SetCompleted(ctx, userID, id, true)
}

// Delete removes the task and returns it as it was before deletion.
func (s *Service) Delete(ctx context.Context, userID string, id int64) (*Task, error) {
	t, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeTaskDeleted, t)
	return t, nil
}

func (s *Service) publish(ctx context.Context, typ events.Type, t *Task) {
	if s.bus == nil {
		return
	}
	ev := events.New(typ, t.UserID, t.ID, t)
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish task event",
			slog.String("type", string(typ)),
			slog.Int64("task_id", t.ID),
			slog.Any("err", err),
		)
	}
}
