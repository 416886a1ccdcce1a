//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/demetriomjr/real-state-crm/domain/chat"
)

type IMessageRepository interface {
	StoreMessage(message chat.Message) error
	GetMessages(tenantID, chatID string, cursor *string) ([]chat.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the on-disk shape, decoupled from the wire struct.
type diskMessage struct {
	ID       string `msgpack:"id"`
	TenantID string `msgpack:"tenant_id"`
	ChatID   string `msgpack:"chat_id"`
	SenderID string `msgpack:"sender_id"`
	FromMe   bool   `msgpack:"from_me"`
	Text     string `msgpack:"text"`
	At       int64  `msgpack:"at"`
}

// maxPaddedTimestamp seeks past every real key of a chat when no cursor is
// given, so the reverse iterator starts at the newest message.
const maxPaddedTimestamp = "9999999999999999999"

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{tenant}:{chat}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message chat.Message) error {
	key := fmt.Sprintf("msg:%s:%s:%019d:%s",
		message.TenantID,
		message.ChatID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := msgpack.Marshal(toDiskMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves messages for one chat using a reverse prefix scan,
// newest first. The padded timestamp in the key keeps the scan naturally
// sorted by time. The returned cursor is the key suffix of the last entry;
// passing it back resumes the scan one entry further.
func (m MessageRepository) GetMessages(tenantID, chatID string, cursor *string) ([]chat.Message, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:%s:", tenantID, chatID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append(prefix, []byte(maxPaddedTimestamp)...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		// The cursor points at the last entry already returned; skip it.
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []chat.Message
	for _, b := range byteMessages {
		var dm diskMessage
		if err = msgpack.Unmarshal(b, &dm); err != nil {
			return nil, nil, err
		}
		message, err := fromDiskMessage(dm)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, lo.ToPtr(lastKey), nil
}

func toDiskMessage(message chat.Message) diskMessage {
	return diskMessage{
		ID:       message.ID.String(),
		TenantID: message.TenantID,
		ChatID:   message.ChatID,
		SenderID: message.SenderID,
		FromMe:   message.FromMe,
		Text:     message.Text,
		At:       message.CreatedAt.UnixNano(),
	}
}

func fromDiskMessage(dm diskMessage) (chat.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		ID:        parsedID,
		TenantID:  dm.TenantID,
		ChatID:    dm.ChatID,
		SenderID:  dm.SenderID,
		FromMe:    dm.FromMe,
		Text:      dm.Text,
		CreatedAt: time.Unix(0, dm.At).UTC(),
	}, nil
}
