package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	eb := NewEventBus()
	sub := eb.Subscribe(ModeChangedEvent)

	eb.Publish(Event{Type: ModeChangedEvent, Payload: "fixed"})
	eb.Publish(Event{Type: PowerChangedEvent, Payload: false}) // not subscribed

	select {
	case ev := <-sub:
		assert.Equal(t, ModeChangedEvent, ev.Type)
		assert.Equal(t, "fixed", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event: %v", ev)
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus()
	sub := eb.Subscribe(PowerChangedEvent)
	eb.Unsubscribe(sub, PowerChangedEvent)

	eb.Publish(Event{Type: PowerChangedEvent, Payload: true})
	select {
	case ev := <-sub:
		t.Fatalf("unexpected event after unsubscribe: %v", ev)
	default:
	}
}

func TestEventBusFullSubscriberDoesNotBlock(t *testing.T) {
	eb := NewEventBus()
	sub := eb.Subscribe(StateChangedEvent)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			eb.Publish(Event{Type: StateChangedEvent, Payload: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	require.NotEmpty(t, sub)
}
