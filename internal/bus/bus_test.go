package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe(10, "chat.")
	defer sub.Close()

	b.Publish(KindChatChanged, "m1")

	select {
	case evt := <-sub.C:
		if evt.Kind != KindChatChanged {
			t.Errorf("got kind %q, want %q", evt.Kind, KindChatChanged)
		}
		if evt.Payload != "m1" {
			t.Errorf("got payload %v, want m1", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	sub := b.Subscribe(10, "counter.", "presence.")
	defer sub.Close()

	b.Publish(KindChatChanged, nil)
	b.Publish(KindPresenceChanged, nil)
	b.Publish(KindCounterChanged, nil)

	for _, want := range []string{KindPresenceChanged, KindCounterChanged} {
		select {
		case evt := <-sub.C:
			if evt.Kind != want {
				t.Errorf("got kind %q, want %q", evt.Kind, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	select {
	case evt := <-sub.C:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New()
	sub := b.Subscribe(10)
	defer sub.Close()

	b.Publish(KindStatusChanged, nil)
	if evt := <-sub.C; evt.Kind != KindStatusChanged {
		t.Errorf("got kind %q, want %q", evt.Kind, KindStatusChanged)
	}
}

func TestClose(t *testing.T) {
	b := New()
	sub := b.Subscribe(10, "chat.")
	sub.Close()
	sub.Close()

	b.Publish(KindChatChanged, nil)

	select {
	case evt := <-sub.C:
		t.Errorf("received event after close: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	sub := b.Subscribe(1, "chat.")
	defer sub.Close()

	b.Publish(KindChatChanged, "one")
	b.Publish(KindChatChanged, "two")

	evt := <-sub.C
	if evt.Payload != "one" {
		t.Errorf("got %v, want one", evt.Payload)
	}
	if sub.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", sub.Dropped())
	}
}

func TestTimestampFromClock(t *testing.T) {
	at := time.UnixMilli(42)
	b := NewWithClock(func() time.Time { return at })
	sub := b.Subscribe(1)
	defer sub.Close()

	b.Publish(KindCounterChanged, nil)
	if evt := <-sub.C; !evt.Timestamp.Equal(at) {
		t.Errorf("timestamp = %v, want %v", evt.Timestamp, at)
	}
}
