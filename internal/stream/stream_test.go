package stream

import (
	"context"
	"testing"
	"time"

	"confportal.org/internal/portal"
)

func TestPublishReachesOnlyRecipient(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := h.Subscribe(ctx, "alice")
	bob := h.Subscribe(ctx, "bob")

	h.Publish(portal.Notification{ID: "n1", UserID: "alice", ApplicationName: "Доклад"})

	select {
	case n := <-alice:
		if n.ID != "n1" {
			t.Fatalf("unexpected notification %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the notification")
	}
	select {
	case n := <-bob:
		t.Fatalf("bob received %+v", n)
	default:
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, "alice")
	if h.Subscribers("alice") != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if h.Subscribers("alice") != 0 {
		t.Fatalf("subscriber not removed")
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = h.Subscribe(ctx, "alice")

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			h.Publish(portal.Notification{UserID: "alice"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}
