// Package runtime hosts the real-time delivery core: the subscription
// registry, the offline message cache, heartbeat bookkeeping and the
// dispatch fan-out. It holds no durable state; a restart silently drops
// every subscription and cached payload, which is acceptable for a
// best-effort notification layer sitting on top of the durable message
// store.
package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"

	"github.com/demetriomjr/real-state-crm/contract"
)

// Hub owns the registry and the cache behind a single lock. Every
// state-mutating operation (subscribe, unsubscribe, dispatch, heartbeat
// touch, sweep) runs as one critical section, which gives the same
// serialization a single-threaded event loop would: no interleaving in the
// middle of a read-modify-write sequence.
type Hub struct {
	mu                sync.Mutex
	log               *slog.Logger
	clock             clock.Clock
	registry          *registry
	cache             *messageCache
	heartbeatInterval time.Duration
	idleTimeout       time.Duration
}

func NewHub(log *slog.Logger, clk clock.Clock, heartbeatInterval, idleTimeout time.Duration) *Hub {
	return &Hub{
		log:               log,
		clock:             clk,
		registry:          newRegistry(),
		cache:             newMessageCache(),
		heartbeatInterval: heartbeatInterval,
		idleTimeout:       idleTimeout,
	}
}

// Subscribe registers userID as the single live listener for chatID,
// tearing down any prior subscription for the same user first (one live
// channel per user, always). Payloads cached for the chat are replayed into
// the sink oldest first, exactly once, before Subscribe returns; a live
// message dispatched afterwards can therefore never overtake a cached one.
//
// since is the client's last known message timestamp. The replay
// deliberately ignores it and hands over the full pending cache; filtering
// on it is an unresolved product question.
func (h *Hub) Subscribe(userID, chatID string, sink contract.MessageSink, since *time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev := h.registry.get(userID); prev != nil {
		h.log.Info("Replacing live subscription", "user", userID, "oldChat", prev.chatID, "newChat", chatID)
		h.teardownLocked(prev)
	}

	sub := &subscription{
		userID:          userID,
		chatID:          chatID,
		sink:            sink,
		lastInteraction: h.clock.Now(),
		heartbeat:       h.clock.Ticker(h.heartbeatInterval),
		done:            make(chan struct{}),
	}
	h.registry.put(sub)
	go h.heartbeatLoop(sub)

	if since != nil {
		h.log.Debug("Replaying full cache regardless of client timestamp",
			"user", userID, "chat", chatID, "since", since.Format(time.RFC3339))
	}
	for _, payload := range h.cache.drain(chatID) {
		if !h.deliverLocked(sub, payload) {
			return
		}
	}
}

// Unsubscribe tears down userID's subscription. Unknown users are a no-op;
// calling it twice has no second side effect.
func (h *Hub) Unsubscribe(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub := h.registry.get(userID); sub != nil {
		h.teardownLocked(sub)
	}
}

// Release tears down userID's subscription only if it still owns the given
// sink. A transport handler whose subscription was already replaced by a
// newer connection from the same user must not tear down its successor.
func (h *Hub) Release(userID string, sink contract.MessageSink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub := h.registry.get(userID); sub != nil && sub.sink == sink {
		h.teardownLocked(sub)
	}
}

// Sweep evicts every subscription idle beyond the timeout and reports how
// many were removed. Routine cleanup, not an error path: the heartbeat
// refreshes timestamps while the transport is being served, so anything
// this stale lost its client without a disconnect signal.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	evicted := 0
	for _, sub := range h.registry.all() {
		idle := now.Sub(sub.lastInteraction)
		if idle > h.idleTimeout {
			h.log.Info("Evicting idle subscription", "user", sub.userID, "chat", sub.chatID, "idle", idle.String())
			h.teardownLocked(sub)
			evicted++
		}
	}
	return evicted
}

// ActiveCount reports the current number of live subscriptions.
func (h *Hub) ActiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.size()
}

// SubscribersForChat reports the user IDs currently listening to a chat,
// in no particular order.
func (h *Hub) SubscribersForChat(chatID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Map(h.registry.byChat(chatID), func(sub *subscription, _ int) string {
		return sub.userID
	})
}

// PendingCount reports how many payloads sit in the cache across all chats.
func (h *Hub) PendingCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.pendingCount()
}

// Shutdown tears down every subscription and drops the cache. The hub must
// not be used afterwards.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.registry.all() {
		h.teardownLocked(sub)
	}
	h.cache = newMessageCache()
	h.log.Info("Hub shut down, all subscriptions dropped")
}

// teardownLocked is the single exit path for a subscription: stop the
// heartbeat ticker before discarding the entry so no timer outlives its
// subscription, close the sink, drop the registry entry. Every caller
// resolves the subscription through the registry first, which is what makes
// teardown idempotent at the operation level.
func (h *Hub) teardownLocked(sub *subscription) {
	sub.heartbeat.Stop()
	close(sub.done)
	if err := sub.sink.Close(); err != nil {
		h.log.Debug("Sink close failed", "user", sub.userID, "error", err)
	}
	h.registry.remove(sub.userID)
}

// heartbeatLoop refreshes the subscription's activity timestamp on every
// tick. It models "the channel is still being actively served": it cannot
// detect a dead transport by itself, the sweep uses the refreshed
// timestamps as its liveness signal, and a failed real write evicts the
// subscriber immediately regardless.
func (h *Hub) heartbeatLoop(sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.heartbeat.C:
			h.touch(sub)
		}
	}
}

func (h *Hub) touch(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A tick can race teardown; only the registered instance is refreshed.
	if h.registry.get(sub.userID) == sub {
		sub.lastInteraction = h.clock.Now()
	}
}
