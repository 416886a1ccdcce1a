// Package search maintains a full-text index over chat message bodies so
// staff can find past conversations without scanning Badger.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"github.com/demetriomjr/real-state-crm/domain/chat"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index upserts one message document. Tenant and chat are indexed as
// keywords so searches never leak across tenants.
func (i *MessageIndex) Index(message chat.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("tenant_id", message.TenantID)).
		AddField(bluge.NewKeywordField("chat_id", message.ChatID).StoreValue()).
		AddField(bluge.NewKeywordField("sender_id", message.SenderID).StoreValue()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewDateTimeField("created_at", message.CreatedAt))
	return i.writer.Update(doc.ID(), doc)
}

// Hit is one search result; the full message lives in the repository.
type Hit struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
}

// Search matches term against message bodies of a single tenant.
func (i *MessageIndex) Search(ctx context.Context, tenantID, term string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Closing index reader failed", "err", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(term).SetField("text")).
		AddMust(bluge.NewTermQuery(tenantID).SetField("tenant_id"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		hit := Hit{}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "chat_id":
				hit.ChatID = string(value)
			case "sender_id":
				hit.SenderID = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
