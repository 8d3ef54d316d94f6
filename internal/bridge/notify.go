// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// NOTIFY HUB
// =============================================================================

// Event is one host-to-UI push notification.
type Event struct {
	Channel string
	Payload interface{}
}

// subscriberBuffer bounds each subscriber queue. A subscriber that falls
// this far behind starts losing events rather than blocking publishers.
const subscriberBuffer = 16

// Hub fans notify-channel events out to SSE subscribers.
// Thread-safe for concurrent publish and subscribe.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and event channel.
// Callers must Unsubscribe with the returned id when done.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish delivers an event to all subscribers.
//
// SECURITY: channels outside the notify allow-list are logged and dropped,
// mirroring the gate on the UI's receive side.
func (h *Hub) Publish(channel string, payload interface{}) {
	if !ValidNotifyChannel(channel) {
		log.Printf("NOTIFY_DROPPED | invalid channel=%s", channel)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- Event{Channel: channel, Payload: payload}:
		default:
			log.Printf("NOTIFY_SLOW_SUBSCRIBER | id=%s channel=%s dropped", id, channel)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close tears down all subscriptions. Further publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}

// encodeSSE renders one event in text/event-stream framing.
func encodeSSE(ev Event) []byte {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		data = []byte("null")
	}
	buf := make([]byte, 0, len(ev.Channel)+len(data)+16)
	buf = append(buf, "event: "...)
	buf = append(buf, ev.Channel...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)
	return buf
}
