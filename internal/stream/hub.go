// Package stream implements the in-process change-notification fan-out.
// Every successful bounty mutation is published once; all current
// subscribers receive it, with no history replay and no per-subscriber
// filtering (observers see every organization's events — a deliberate
// property of the stream, not of the visibility-scoped read API).
package stream

import (
	"sync"

	"github.com/openclaw/bountyboard/internal/queue"
)

// subscriber channels are buffered; a subscriber that falls this far
// behind starts losing events rather than blocking publishers.
const subscriberBuffer = 16

// Hub is a process-lifetime broadcast channel of bounty events.
// The zero value is not usable; construct with NewHub.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan queue.BountyEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan queue.BountyEvent]struct{})}
}

// Subscribe registers a new observer and returns its channel together
// with a cancel function. The channel only carries events published
// after this call. Cancel must be called when the observer disconnects;
// it unregisters and closes the channel.
func (h *Hub) Subscribe() (<-chan queue.BountyEvent, func()) {
	ch := make(chan queue.BountyEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to all current subscribers. It never
// blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev queue.BountyEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports the number of currently connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
