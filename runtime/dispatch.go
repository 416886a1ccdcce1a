package runtime

import "encoding/json"

// Dispatch routes one new chat message. With no live subscriber the payload
// is parked in the cache, which is the expected path for offline
// recipients, not an error. Otherwise every current subscriber of the chat
// receives the message: fan-out, not broadcast-once, so several staff
// members viewing the same chat all see it. A subscriber whose write fails
// is evicted on the spot without affecting delivery to the others.
func (h *Hub) Dispatch(chatID string, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.registry.byChat(chatID)
	if len(subs) == 0 {
		h.cache.enqueue(chatID, payload)
		return
	}
	for _, sub := range subs {
		h.deliverLocked(sub, payload)
	}
}

// deliverLocked writes one payload to a subscriber and refreshes its
// activity timestamp. A write failure tears the subscription down and
// reports false; the caller must not write to sub again.
func (h *Hub) deliverLocked(sub *subscription, payload json.RawMessage) bool {
	frame, err := EncodeFrame(payload)
	if err != nil {
		h.log.Error("Dropping unframeable payload", "chat", sub.chatID, "error", err)
		return true
	}
	if err := sub.sink.Write(frame); err != nil {
		h.log.Warn("Write failed, evicting subscriber", "user", sub.userID, "chat", sub.chatID, "error", err)
		h.teardownLocked(sub)
		return false
	}
	sub.lastInteraction = h.clock.Now()
	return true
}
