// Package realtime provides in-process change notification for stores that have no
// native push mechanism.
package realtime

import (
	"sync"
)

// Hub fans out change notifications keyed by owner.
// Notifications are coalesced: a watcher that has not consumed the previous
// signal receives one signal for any number of Publish calls.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers a watcher for owner. The returned cancel func is idempotent.
func (h *Hub) Subscribe(owner string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.watchers[owner]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.watchers[owner] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			set := h.watchers[owner]
			delete(set, ch)
			if len(set) == 0 {
				delete(h.watchers, owner)
			}
		})
	}

	return ch, cancel
}

// Publish signals every watcher of owner without blocking.
func (h *Hub) Publish(owner string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.watchers[owner] {
		select {
		case ch <- struct{}{}:
		default: // already pending
		}
	}
}

// Watchers returns the number of active watchers for owner.
func (h *Hub) Watchers(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[owner])
}
