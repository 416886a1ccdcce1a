package projection

import (
	"encoding/json"
	"log/slog"

	"github.com/demetriomjr/real-state-crm/contract"
	"github.com/demetriomjr/real-state-crm/domain/chat"
)

var _ contract.Dispatcher = (*Tap)(nil)

// Tap sits between the ingestion service and the delivery hub: it records
// every dispatched message into the projection, then forwards the payload
// untouched. A payload the tap cannot decode is still delivered; the
// projection is strictly best effort.
type Tap struct {
	log    *slog.Logger
	recent *RecentActivity
	next   contract.Dispatcher
}

func NewTap(log *slog.Logger, recent *RecentActivity, next contract.Dispatcher) *Tap {
	return &Tap{log: log, recent: recent, next: next}
}

func (t *Tap) Dispatch(chatID string, payload json.RawMessage) {
	var message chat.Message
	if err := json.Unmarshal(payload, &message); err != nil {
		t.log.Debug("Projection skipped undecodable payload", "chat", chatID, "err", err)
	} else {
		t.recent.Record(message)
	}
	t.next.Dispatch(chatID, payload)
}
