// Package stream fans analysis snapshots out from the single analysis loop
// to any number of consumers (renderers, recorders, debug taps).
package stream

import (
	"context"
	"sync"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

// Hub fans out snapshots from one source to N subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	latest      analysis.Snapshot
	hasLatest   bool
}

// Subscriber receives snapshots from the hub.
type Subscriber struct {
	C    chan analysis.Snapshot // buffered channel of analysis frames
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber. If a snapshot has already passed
// through the hub, the subscriber starts with it so a late-attaching
// renderer never draws an empty frame.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		C:    make(chan analysis.Snapshot, 8), // a small fraction of a second at 60Hz
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	if h.hasLatest {
		s.C <- h.latest
	}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and signals it to stop.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	h.mu.Unlock()
	close(s.done)
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Latest returns the most recent snapshot seen by the hub, if any.
func (h *Hub) Latest() (analysis.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// Run reads snapshots from source and fans out to all subscribers.
// Slow subscribers get frames dropped rather than blocking the fan-out;
// each frame is a full state, so dropping one never corrupts a consumer.
func (h *Hub) Run(ctx context.Context, source <-chan analysis.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-source:
			if !ok {
				return
			}
			h.mu.Lock()
			h.latest = snap
			h.hasLatest = true
			for s := range h.subscribers {
				select {
				case s.C <- snap:
				default:
					// subscriber too slow, drop the frame to keep the fan-out moving
				}
			}
			h.mu.Unlock()
		}
	}
}
