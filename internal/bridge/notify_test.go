// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"strings"
	"testing"
	"time"
)

func TestHub_PublishDelivers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	id, events := hub.Subscribe()
	if id == "" {
		t.Fatal("empty subscriber id")
	}

	hub.Publish(ChannelDownloadProgress, map[string]int{"percent": 40})

	select {
	case ev := <-events:
		if ev.Channel != ChannelDownloadProgress {
			t.Errorf("channel = %q", ev.Channel)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHub_InvalidChannelDropped(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, events := hub.Subscribe()
	hub.Publish("not-on-the-allow-list", nil)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event on channel %q", ev.Channel)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	// Never drained; the buffer fills and further publishes must drop.
	hub.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(ChannelFromMainTest, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	id, events := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("count = %d", hub.SubscriberCount())
	}

	hub.Unsubscribe(id)
	if hub.SubscriberCount() != 0 {
		t.Fatalf("count after unsubscribe = %d", hub.SubscriberCount())
	}
	if _, open := <-events; open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestHub_CloseClosesAllSubscribers(t *testing.T) {
	hub := NewHub()
	_, a := hub.Subscribe()
	_, b := hub.Subscribe()

	hub.Close()

	for _, events := range []<-chan Event{a, b} {
		if _, open := <-events; open {
			t.Error("subscriber channel still open after close")
		}
	}

	// Publishing after close is a no-op, not a panic.
	hub.Publish(ChannelFromMainTest, nil)
}

func TestEncodeSSE(t *testing.T) {
	got := string(encodeSSE(Event{
		Channel: ChannelUpdateAvailable,
		Payload: map[string]string{"version": "2.0.0"},
	}))

	if !strings.HasPrefix(got, "event: update-available\n") {
		t.Errorf("missing event line: %q", got)
	}
	if !strings.Contains(got, `data: {"version":"2.0.0"}`) {
		t.Errorf("missing data line: %q", got)
	}
	if !strings.HasSuffix(got, "\n\n") {
		t.Errorf("missing terminator: %q", got)
	}
}
