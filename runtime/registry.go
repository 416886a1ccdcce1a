package runtime

import "github.com/samber/lo"

// registry is the single source of truth for who is currently listening to
// which chat. It is a plain map keyed by user ID, exclusively owned by the
// Hub; the Hub's lock serializes every access, so the registry itself
// carries no synchronization.
type registry struct {
	subscriptions map[string]*subscription
}

func newRegistry() *registry {
	return &registry{subscriptions: make(map[string]*subscription)}
}

func (r *registry) get(userID string) *subscription {
	return r.subscriptions[userID]
}

func (r *registry) put(sub *subscription) {
	r.subscriptions[sub.userID] = sub
}

func (r *registry) remove(userID string) {
	delete(r.subscriptions, userID)
}

// byChat snapshots the subscribers of one chat so callers can tear entries
// down while iterating. Order is not significant.
func (r *registry) byChat(chatID string) []*subscription {
	return lo.Filter(lo.Values(r.subscriptions), func(sub *subscription, _ int) bool {
		return sub.chatID == chatID
	})
}

func (r *registry) all() []*subscription {
	return lo.Values(r.subscriptions)
}

func (r *registry) size() int {
	return len(r.subscriptions)
}
