// Package chat contains core concepts of the WhatsApp chat data model.
// Messages are immutable once persisted and validated at the service boundary.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one chat message, inbound (from the WhatsApp gateway)
// or outbound (a staff reply forwarded through the automation engine).
type Message struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenantId"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	FromMe    bool      `json:"fromMe"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostMessageCommand carries an already-validated inbound message
// from the gateway webhook handler into the ingestion service.
type PostMessageCommand struct {
	TenantID  string    `validate:"required"`
	ChatID    string    `validate:"required"`
	SenderID  string    `validate:"required"`
	Text      string    `validate:"required,max=65536"`
	CreatedAt time.Time `validate:"required"`
}

// ReplyCommand carries a staff reply destined for the external contact.
type ReplyCommand struct {
	TenantID string `validate:"required"`
	ChatID   string `validate:"required"`
	UserID   string `validate:"required"`
	Text     string `validate:"required,max=65536"`
}

// GetMessagesCommand pages through a chat history, newest first.
type GetMessagesCommand struct {
	TenantID string `validate:"required"`
	ChatID   string `validate:"required"`
	Cursor   *string
}
