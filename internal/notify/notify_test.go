package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

func TestPublishPersistsAndDelivers(t *testing.T) {
	st := store.NewMemory()
	fixed := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	hub := NewHub(st.Notifications(), WithClock(func() time.Time { return fixed }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := hub.Subscribe(ctx)

	sent, err := hub.Publish(ctx, domain.Notification{
		Title:    "Change request approved",
		Message:  "MOC-1 moved to approved",
		Severity: domain.SeveritySuccess,
		Link:     "/mocs/MOC-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sent.ID == "" || !sent.Timestamp.Equal(fixed) {
		t.Fatalf("sent = %+v", sent)
	}

	select {
	case got := <-ch:
		if got.ID != sent.ID || got.Severity != domain.SeveritySuccess {
			t.Fatalf("delivered = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}

	list, _ := hub.List(ctx)
	if len(list) != 1 || list[0].ID != sent.ID {
		t.Fatalf("buffer = %+v", list)
	}
}

func TestSubscribeClosesOnContextEnd(t *testing.T) {
	hub := NewHub(store.NewMemory().Notifications())

	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("received event after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// publishing after unsubscribe must not panic
	if _, err := hub.Publish(context.Background(), domain.Notification{Title: "x"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(store.NewMemory().Notifications())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Subscribe(ctx) // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			_, _ = hub.Publish(ctx, domain.Notification{Title: fmt.Sprintf("n%d", i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

func TestBufferCapFlowsThrough(t *testing.T) {
	st := store.NewMemory()
	hub := NewHub(st.Notifications())
	ctx := context.Background()

	for i := 0; i < store.MaxNotifications+5; i++ {
		if _, err := hub.Publish(ctx, domain.Notification{Title: fmt.Sprintf("n%d", i)}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	list, _ := hub.List(ctx)
	if len(list) != store.MaxNotifications {
		t.Fatalf("len = %d, want %d", len(list), store.MaxNotifications)
	}
	if list[0].Title != fmt.Sprintf("n%d", store.MaxNotifications+4) {
		t.Fatalf("head = %s, want newest", list[0].Title)
	}
}
