package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_AssignsIDAndTimestamp(t *testing.T) {
	ev := New(TypeTaskCreated, "u1", 7, map[string]string{"title": "x"})
	if ev.ID == "" {
		t.Error("expected non-empty ID")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
	if ev.TaskID != 7 || ev.UserID != "u1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestInMemoryBus_Subscribe_Unsubscribe(t *testing.T) {
	bus := NewInMemoryBus(nil)
	ctx := context.Background()

	var received int32
	unsub := bus.Subscribe("u1", func(_ context.Context, _ *Event) error {
		atomic.AddInt32(&received, 1)
		return nil
	})

	ev := New(TypeTaskCreated, "u1", 1, nil)
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if atomic.LoadInt32(&received) != 1 {
		t.Errorf("received = %d, want 1", received)
	}

	unsub()
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish after unsub: %v", err)
	}
	if atomic.LoadInt32(&received) != 1 {
		t.Errorf("received after unsub = %d, want 1", received)
	}
}

func TestInMemoryBus_ScopedToUser(t *testing.T) {
	bus := NewInMemoryBus(nil)
	ctx := context.Background()

	var alice, bob int32
	bus.Subscribe("alice", func(_ context.Context, _ *Event) error {
		atomic.AddInt32(&alice, 1)
		return nil
	})
	bus.Subscribe("bob", func(_ context.Context, _ *Event) error {
		atomic.AddInt32(&bob, 1)
		return nil
	})

	if err := bus.Publish(ctx, New(TypeTaskDeleted, "alice", 3, nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if alice != 1 || bob != 0 {
		t.Errorf("alice = %d, bob = %d, want 1, 0", alice, bob)
	}
}

func TestInMemoryBus_HandlerError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")
	bus.Subscribe("u1", func(_ context.Context, _ *Event) error { return boom })

	err := bus.Publish(context.Background(), New(TypeTaskUpdated, "u1", 1, nil))
	if !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want wrapping %v", err, boom)
	}
}

func TestInMemoryBus_History(t *testing.T) {
	bus := NewInMemoryBus(nil)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_ = bus.Publish(ctx, New(TypeTaskCreated, "u1", i, nil))
	}
	_ = bus.Publish(ctx, New(TypeTaskCreated, "u2", 99, nil))

	hist, err := bus.History("u1", 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(hist))
	}
	for i, want := range []int64{3, 4, 5} {
		if hist[i].TaskID != want {
			t.Errorf("hist[%d].TaskID = %d, want %d", i, hist[i].TaskID, want)
		}
	}

	all, _ := bus.History("u1", 0)
	if len(all) != 5 {
		t.Errorf("len(History(0)) = %d, want 5", len(all))
	}
}

func TestInMemoryBus_HistoryCap(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.maxHist = 10
	for i := 0; i < 25; i++ {
		_ = bus.Publish(context.Background(), New(TypeTaskCreated, "u1", int64(i), nil))
	}
	hist, _ := bus.History("u1", 0)
	if len(hist) != 10 {
		t.Errorf("len(History) = %d, want 10", len(hist))
	}
	if hist[0].TaskID != 15 {
		t.Errorf("oldest retained TaskID = %d, want 15", hist[0].TaskID)
	}
}

func TestInMemoryBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var count int32
	bus.Subscribe("u1", func(_ context.Context, _ *Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = bus.Publish(context.Background(), New(TypeTaskCreated, "u1", int64(i), nil))
		}(i)
	}
	wg.Wait()
	if count != 50 {
		t.Errorf("delivered = %d, want 50", count)
	}
}

func TestInMemoryBus_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewInMemoryBus(reg)
	bus.Subscribe("u1", func(_ context.Context, _ *Event) error { return nil })

	_ = bus.Publish(context.Background(), New(TypeTaskCompleted, "u1", 1, nil))
	_ = bus.Publish(context.Background(), New(TypeTaskCompleted, "u2", 2, nil))

	if got := testutil.ToFloat64(bus.metrics.published.WithLabelValues(string(TypeTaskCompleted))); got != 2 {
		t.Errorf("published = %v, want 2", got)
	}
	if got := testutil.ToFloat64(bus.metrics.delivered.WithLabelValues(string(TypeTaskCompleted))); got != 1 {
		t.Errorf("delivered = %v, want 1", got)
	}
}
