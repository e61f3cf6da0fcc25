package notify

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

// StorageEvent mirrors one local-cache write so other sessions ("tabs") can
// react to it. NewValue carries the raw stored string.
type StorageEvent struct {
	Key      string `json:"key"`
	NewValue string `json:"new_value"`
}

// Hub fans storage events out to in-process subscribers and attached
// websocket sessions. Publishing never blocks: slow subscribers drop events.
type Hub struct {
	mu   sync.Mutex
	subs map[chan StorageEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: map[chan StorageEvent]struct{}{},
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called on teardown; after it returns no more events are delivered.
func (h *Hub) Subscribe() (<-chan StorageEvent, func()) {
	ch := make(chan StorageEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// PublishStorage broadcasts one cache write to every subscriber.
func (h *Hub) PublishStorage(key, newValue string) {
	ev := StorageEvent{Key: key, NewValue: newValue}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.WithField("key", key).Warn("[notify] subscriber buffer full, dropping storage event")
		}
	}
}
