package runtime

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/demetriomjr/real-state-crm/contract"
)

// subscription binds one user to one chat's live delivery channel.
// At most one subscription exists per user at any time. Fields are owned
// by the Hub and only mutated under its lock; the heartbeat goroutine
// consumes done and the ticker channel, nothing else.
type subscription struct {
	userID          string
	chatID          string
	sink            contract.MessageSink
	lastInteraction time.Time
	heartbeat       *clock.Ticker
	done            chan struct{}
}
