// Package projection builds small in-memory views from the message flow.
// Projections observe, they never influence delivery or persistence.
package projection

import (
	"sync"

	"github.com/demetriomjr/real-state-crm/domain/chat"
)

// RecentActivity keeps the tail of the conversation per chat, newest last.
// It backs the operator stats view; the durable history stays in the
// repository and a restart simply starts the view empty.
type RecentActivity struct {
	mu    sync.Mutex
	depth int
	chats map[string][]chat.Message
}

func NewRecentActivity(depth int) *RecentActivity {
	return &RecentActivity{
		depth: depth,
		chats: make(map[string][]chat.Message),
	}
}

func (p *RecentActivity) Record(message chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tail := append(p.chats[message.ChatID], message)
	if len(tail) > p.depth {
		tail = tail[len(tail)-p.depth:]
	}
	p.chats[message.ChatID] = tail
}

// ForChat returns a copy of the chat's tail, oldest first.
func (p *RecentActivity) ForChat(chatID string) []chat.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	tail := p.chats[chatID]
	out := make([]chat.Message, len(tail))
	copy(out, tail)
	return out
}
