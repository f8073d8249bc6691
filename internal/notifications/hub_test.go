package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
	return Event{}
}

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: EventQuoteSaved})

	event := receive(t, ch)
	if event.Type != EventQuoteSaved {
		t.Fatalf("expected event type %s, got %s", EventQuoteSaved, event.Type)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

// TestHubPublishIsolatesUsers проверяет, что событие не уходит чужому сотруднику.
func TestHubPublishIsolatesUsers(t *testing.T) {
	hub := NewHub()

	other, unsubscribe := hub.Subscribe(uuid.New())
	defer unsubscribe()

	hub.Publish(uuid.New(), Event{Type: EventQuoteSaved})

	select {
	case event := <-other:
		t.Fatalf("unexpected event %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubBroadcast проверяет доставку события всем подписчикам.
func TestHubBroadcast(t *testing.T) {
	hub := NewHub()

	first, unsubscribeFirst := hub.Subscribe(uuid.New())
	defer unsubscribeFirst()
	second, unsubscribeSecond := hub.Subscribe(uuid.New())
	defer unsubscribeSecond()

	hub.Broadcast(Event{Type: EventPricesRefreshed})

	if event := receive(t, first); event.Type != EventPricesRefreshed {
		t.Fatalf("unexpected event %s", event.Type)
	}
	if event := receive(t, second); event.Type != EventPricesRefreshed {
		t.Fatalf("unexpected event %s", event.Type)
	}
}

// TestHubUnsubscribe проверяет закрытие канала и повторную отписку.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}
