package ws

import (
	"context"
	"sync"

	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/wire"
)

type subKey struct {
	userID     string
	collection wire.Collection
}

// subscriber is one live subscription: snapshot pushes for its key are
// written to the owning connection's send channel under its ID.
type subscriber struct {
	id   string
	key  subKey
	send chan<- wire.Message
}

// Hub fans snapshot pushes out to every subscriber of a (user, collection)
// pair. Connections register subscribers on subscribe and remove them on
// unsubscribe or disconnect.
type Hub struct {
	mu     sync.RWMutex
	subs   map[subKey]map[*subscriber]struct{}
	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		subs:   make(map[subKey]map[*subscriber]struct{}),
		logger: logger.With("module", "ws_hub"),
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.key]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.key)
	}
}

// broadcast pushes the snapshot to every subscriber of the key. A subscriber
// whose connection cannot keep up misses this push; the next mutation will
// send a fresh full snapshot anyway.
func (h *Hub) broadcast(userID string, collection wire.Collection, records []wire.Record) {
	params, err := wire.Marshal(wire.Snapshot{Collection: collection, Records: records})
	if err != nil {
		h.logger.Error(context.Background(), "error encoding snapshot", "error", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs[subKey{userID, collection}]))
	for sub := range h.subs[subKey{userID, collection}] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		msg := wire.Message{ID: sub.id, Method: wire.MethodSnapshot, Params: params}
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn(context.Background(), "slow subscriber, dropping snapshot",
				"subscription_id", sub.id, "collection", collection)
		}
	}
}
