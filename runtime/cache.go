package runtime

import "encoding/json"

// messageCache buffers payloads for chats that currently have no listener.
// Queues are unbounded per chat and bounded only by chat lifetime; chat
// volume is low enough that a count or time bound is not worth carrying.
// Exclusively owned by the Hub, synchronized by the Hub's lock.
type messageCache struct {
	pending map[string][]json.RawMessage
}

func newMessageCache() *messageCache {
	return &messageCache{pending: make(map[string][]json.RawMessage)}
}

func (c *messageCache) enqueue(chatID string, payload json.RawMessage) {
	c.pending[chatID] = append(c.pending[chatID], payload)
}

// drain returns the full queue for a chat in arrival order and removes the
// entry. The caller becomes the single consumer: no payload is ever
// returned twice, none is dropped between read and removal.
func (c *messageCache) drain(chatID string) []json.RawMessage {
	queue := c.pending[chatID]
	delete(c.pending, chatID)
	return queue
}

// pendingCount totals queued payloads across all chats.
func (c *messageCache) pendingCount() int {
	count := 0
	for _, queue := range c.pending {
		count += len(queue)
	}
	return count
}
