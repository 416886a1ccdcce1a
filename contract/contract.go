//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"encoding/json"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageSink is one client's live delivery channel. The hub is the sole
// writer; the transport layer is the sole reader. Write must never block:
// a sink that cannot accept a frame reports an error and gets evicted.
type MessageSink interface {
	Write(frame []byte) error
	Close() error
}

// Dispatcher routes one chat message to zero-or-more live subscribers.
// Payloads are opaque JSON; dispatch never reports failure to the caller.
type Dispatcher interface {
	Dispatch(chatID string, payload json.RawMessage)
}

// OutboundGateway forwards a staff reply to the WhatsApp automation engine.
type OutboundGateway interface {
	SendText(ctx context.Context, tenantID, chatID, text string) error
}
