package task

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GoCodeAlone/todochat/events"
)

func newTestService(t *testing.T) (*Service, *events.InMemoryBus) {
	t.Helper()
	bus := events.NewInMemoryBus(nil)
	return NewService(newTestStore(t), bus, nil), bus
}

func TestService_Create(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := context.Background()

	got, err := svc.Create(ctx, "u1", "  buy milk  ", strPtr("   "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "buy milk" {
		t.Errorf("Title = %q, want %q", got.Title, "buy milk")
	}
	if got.Description != nil {
		t.Errorf("blank description should be stored as nil, got %q", *got.Description)
	}

	hist, _ := bus.History("u1", 0)
	if len(hist) != 1 || hist[0].Type != events.TypeTaskCreated {
		t.Errorf("events = %v, want one task.created", hist)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		title string
		desc  *string
	}{
		{"empty title", "", nil},
		{"blank title", "   ", nil},
		{"long title", strings.Repeat("x", MaxTitleLen+1), nil},
		{"long description", "ok", strPtr(strings.Repeat("d", MaxDescriptionLen+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "u1", tt.title, tt.desc)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Create err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "old", strPtr("details"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// description untouched when nil
	updated, err := svc.Update(ctx, "u1", created.ID, Patch{Title: strPtr("new")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "new" || updated.Description == nil || *updated.Description != "details" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.ID != created.ID || updated.Completed {
		t.Errorf("id/completed changed: %+v", updated)
	}

	// empty description clears it
	cleared, err := svc.Update(ctx, "u1", created.ID, Patch{Description: strPtr("")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cleared.Description != nil {
		t.Errorf("Description = %q, want nil", *cleared.Description)
	}

	if _, err := svc.Update(ctx, "u1", created.ID, Patch{Title: strPtr("")}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title err = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(ctx, "u2", created.ID, Patch{Title: strPtr("stolen")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user err = %v, want ErrNotFound", err)
	}
}

func TestService_CompleteAndDelete(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "walk dog", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	done, err := svc.Complete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.Completed {
		t.Error("Completed = false, want true")
	}
	outcome := NewOutcome(StatusCompleted, done)
	if outcome.TaskID != created.ID || outcome.Status != StatusCompleted || outcome.Title != "walk dog" {
		t.Errorf("outcome = %+v", outcome)
	}

	deleted, err := svc.Delete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Title != "walk dog" {
		t.Errorf("deleted.Title = %q, want %q", deleted.Title, "walk dog")
	}
	if _, err := svc.Delete(ctx, "u1", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}

	hist, _ := bus.History("u1", 0)
	var types []events.Type
	for _, ev := range hist {
		types = append(types, ev.Type)
	}
	want := []events.Type{events.TypeTaskCreated, events.TypeTaskCompleted, events.TypeTaskDeleted}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestService_Replace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "draft", strPtr("notes"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	replaced, err := svc.Replace(ctx, "u1", created.ID, "final", nil, true)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if replaced.Title != "final" || replaced.Description != nil || !replaced.Completed {
		t.Errorf("replaced = %+v", replaced)
	}
}
