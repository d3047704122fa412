package realtime

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func drain(c *Conn) []Envelope {
	var out []Envelope
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestHubBroadcastOrder(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	userID := primitive.NewObjectID()
	c := h.Register(userID)
	defer h.Unregister(c)

	taskID := primitive.NewObjectID()
	h.BroadcastTask(TaskEvent{Type: EventTaskCreated, TaskID: taskID})
	h.BroadcastTask(TaskEvent{Type: EventTaskUpdated, TaskID: taskID})
	h.BroadcastTask(TaskEvent{Type: EventTaskDeleted, TaskID: taskID})

	got := drain(c)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	wantOrder := []string{EventTaskCreated, EventTaskUpdated, EventTaskDeleted}
	for i, want := range wantOrder {
		if got[i].Event != want {
			t.Errorf("event %d = %q, want %q", i, got[i].Event, want)
		}
	}
}

func TestHubSubscriptionFiltering(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	c := h.Register(primitive.NewObjectID())
	defer h.Unregister(c)

	watched := primitive.NewObjectID()
	other := primitive.NewObjectID()

	// No subscriptions: everything arrives.
	h.BroadcastTask(TaskEvent{Type: EventTaskCreated, TaskID: other})
	if got := drain(c); len(got) != 1 {
		t.Fatalf("unsubscribed conn got %d events, want 1", len(got))
	}

	// Subscribed: only the watched task arrives.
	c.Subscribe(watched)
	h.BroadcastTask(TaskEvent{Type: EventTaskUpdated, TaskID: watched})
	h.BroadcastTask(TaskEvent{Type: EventTaskUpdated, TaskID: other})
	got := drain(c)
	if len(got) != 1 {
		t.Fatalf("subscribed conn got %d events, want 1", len(got))
	}
	ev, ok := got[0].Data.(TaskEvent)
	if !ok || ev.TaskID != watched {
		t.Errorf("subscribed conn got event for wrong task: %+v", got[0].Data)
	}

	// Unsubscribing the last task widens back to everything.
	c.Unsubscribe(watched)
	h.BroadcastTask(TaskEvent{Type: EventTaskUpdated, TaskID: other})
	if got := drain(c); len(got) != 1 {
		t.Errorf("conn after unsubscribe got %d events, want 1", len(got))
	}
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	c := h.Register(primitive.NewObjectID())
	defer h.Unregister(c)

	taskID := primitive.NewObjectID()
	for i := 0; i < connBuffer+10; i++ {
		h.BroadcastTask(TaskEvent{Type: EventTaskUpdated, TaskID: taskID})
	}

	// The queue holds at most connBuffer frames; overflow is dropped,
	// never blocked on.
	if got := drain(c); len(got) != connBuffer {
		t.Errorf("slow client got %d events, want %d", len(got), connBuffer)
	}
}

func TestHubNotifyUserTargetsOneUser(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	ca := h.Register(alice)
	cb := h.Register(bob)
	defer h.Unregister(ca)
	defer h.Unregister(cb)

	h.NotifyUser(alice, NotificationEvent{Type: EventNotificationCreated, UserID: alice})

	if got := drain(ca); len(got) != 1 {
		t.Errorf("alice got %d events, want 1", len(got))
	}
	if got := drain(cb); len(got) != 0 {
		t.Errorf("bob got %d events, want 0", len(got))
	}
}

func TestHubConnFor(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	c := h.Register(alice)
	defer h.Unregister(c)

	if got, ok := h.ConnFor(alice, c.ID()); !ok || got != c {
		t.Error("ConnFor did not return the owner's connection")
	}
	if _, ok := h.ConnFor(bob, c.ID()); ok {
		t.Error("ConnFor returned a connection to a different user")
	}
	if _, ok := h.ConnFor(alice, c.ID()+100); ok {
		t.Error("ConnFor returned a connection for an unknown id")
	}
}

func TestHubClose(t *testing.T) {
	h := NewHub(zap.NewNop())

	c := h.Register(primitive.NewObjectID())
	h.Close()

	// Channel is closed; receives complete immediately.
	if _, open := <-c.Events(); open {
		t.Error("events channel still open after Close")
	}

	// Registering after close yields an already-closed connection
	// instead of one that leaks.
	c2 := h.Register(primitive.NewObjectID())
	if _, open := <-c2.Events(); open {
		t.Error("post-close registration returned an open channel")
	}

	// Broadcasting after close is a no-op, not a panic.
	h.BroadcastTask(TaskEvent{Type: EventTaskCreated, TaskID: primitive.NewObjectID()})
}
