package events

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for %s", what)
	}
}

func TestBusDeliversToMatchingSubscriber(t *testing.T) {
	bus := New()
	received := make(chan struct{})

	var got ArtifactInstalledEvent
	unsub := bus.Subscribe(func(e ArtifactInstalledEvent) {
		got = e
		close(received)
	})
	defer unsub()

	bus.Publish(ArtifactInstalledEvent{Path: "/etc/rc.local", Action: "patched"})
	waitFor(t, received, "artifact event")

	if got.Path != "/etc/rc.local" || got.Action != "patched" {
		t.Errorf("Unexpected event payload: %+v", got)
	}
}

func TestBusSeparatesEventTypes(t *testing.T) {
	bus := New()
	advisories := make(chan struct{})

	bus.Subscribe(func(AdvisoryEvent) {
		close(advisories)
	})
	installs := 0
	bus.Subscribe(func(ArtifactInstalledEvent) {
		installs++
	})

	bus.Publish(AdvisoryEvent{Message: "no camera detected"})
	waitFor(t, advisories, "advisory event")

	if installs != 0 {
		t.Errorf("Install subscriber received %d events for an advisory", installs)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New()
	first := make(chan struct{})

	count := 0
	unsub := bus.Subscribe(func(AdvisoryEvent) {
		count++
		if count == 1 {
			close(first)
		}
	})

	bus.Publish(AdvisoryEvent{Message: "one"})
	waitFor(t, first, "first advisory")

	unsub()
	bus.Publish(AdvisoryEvent{Message: "two"})
	time.Sleep(50 * time.Millisecond)

	if count != 1 {
		t.Errorf("Expected 1 delivery after unsubscribe, got %d", count)
	}
}
