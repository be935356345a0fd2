// Package stream fans board snapshots out to live subscribers.
package stream

import (
	"sync"

	"progressboard/internal/board"
)

// Hub is a board.Observer that delivers snapshots to subscribers without blocking
// the board. A slow subscriber only ever misses intermediate snapshots; the most
// recent one is always queued.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan board.Snapshot]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[chan board.Snapshot]struct{}), buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func closes the channel.
func (h *Hub) Subscribe() (<-chan board.Snapshot, func()) {
	ch := make(chan board.Snapshot, h.buffer)

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

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) BoardChanged(snapshot board.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// full: drop the oldest queued snapshot to make room
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (h *Hub) PersistFailed(string, error) {}

func (h *Hub) HydrationFailed(error) {}
