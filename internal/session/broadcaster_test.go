package session

import (
	"testing"

	"homego/internal/domain"
)

func TestBroadcasterDeliversInRegistrationOrder(t *testing.T) {
	b := NewBroadcaster()

	var order []string
	b.Subscribe(func(Event) { order = append(order, "first") })
	b.Subscribe(func(Event) { order = append(order, "second") })
	b.Subscribe(func(Event) { order = append(order, "third") })

	user := domain.User{ID: "u1"}
	b.Publish(Event{Kind: SignedIn, User: &user, Authenticated: true})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestBroadcasterNoReplayForLateSubscribers(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Event{Kind: SignedOut})

	called := false
	b.Subscribe(func(Event) { called = true })
	if called {
		t.Fatalf("late subscriber must not receive past events")
	}

	b.Publish(Event{Kind: SignedOut})
	if !called {
		t.Fatalf("subscriber should receive new events")
	}
}

func TestBroadcasterIgnoresNilListener(t *testing.T) {
	b := NewBroadcaster()
	b.Subscribe(nil)
	b.Publish(Event{Kind: SignedOut})
}
