package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/demetriomjr/real-state-crm/contract"
	"github.com/demetriomjr/real-state-crm/domain/chat"
	"github.com/demetriomjr/real-state-crm/infrastructure/search"
	"github.com/demetriomjr/real-state-crm/repositories"
)

// MessageService sits between the transports (gateway webhook, staff API)
// and the delivery core. Persistence always happens before dispatch: the
// hub is a best-effort notification layer, the repository is the source of
// truth.
type MessageService struct {
	log        *slog.Logger
	validate   *validator.Validate
	repository repositories.IMessageRepository
	index      *search.MessageIndex
	dispatcher contract.Dispatcher
	gateway    contract.OutboundGateway
	clock      clock.Clock
}

func NewMessageService(
	log *slog.Logger,
	repository repositories.IMessageRepository,
	index *search.MessageIndex,
	dispatcher contract.Dispatcher,
	gateway contract.OutboundGateway,
	clk clock.Clock,
) *MessageService {
	return &MessageService{
		log:        log,
		validate:   validator.New(),
		repository: repository,
		index:      index,
		dispatcher: dispatcher,
		gateway:    gateway,
		clock:      clk,
	}
}

// PostMessage ingests one inbound message from the WhatsApp gateway:
// validate, persist, index, then hand over to the dispatcher. Dispatch
// only runs after persistence succeeded, so a subscriber can always find
// in history what it saw live.
func (s *MessageService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return chat.Message{}, err
	}

	message := chat.Message{
		ID:        uuid.New(),
		TenantID:  cmd.TenantID,
		ChatID:    cmd.ChatID,
		SenderID:  cmd.SenderID,
		FromMe:    false,
		Text:      cmd.Text,
		CreatedAt: cmd.CreatedAt.UTC(),
	}
	if err := s.repository.StoreMessage(message); err != nil {
		return chat.Message{}, fmt.Errorf("storing message: %w", err)
	}
	s.indexBestEffort(message)
	s.dispatch(message)
	return message, nil
}

// Reply records a staff reply, fans it out to the other viewers of the
// chat and forwards it to the automation engine for the actual WhatsApp
// delivery. A gateway failure is logged but does not undo the ingest; the
// engine retries on its side.
func (s *MessageService) Reply(ctx context.Context, cmd chat.ReplyCommand) (chat.Message, error) {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return chat.Message{}, err
	}

	message := chat.Message{
		ID:        uuid.New(),
		TenantID:  cmd.TenantID,
		ChatID:    cmd.ChatID,
		SenderID:  cmd.UserID,
		FromMe:    true,
		Text:      cmd.Text,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repository.StoreMessage(message); err != nil {
		return chat.Message{}, fmt.Errorf("storing reply: %w", err)
	}
	s.indexBestEffort(message)
	s.dispatch(message)

	if err := s.gateway.SendText(ctx, cmd.TenantID, cmd.ChatID, cmd.Text); err != nil {
		s.log.Error("Automation engine rejected outbound message",
			"tenant", cmd.TenantID, "chat", cmd.ChatID, "err", err)
	}
	return message, nil
}

// GetMessages pages through one chat's history, newest first.
func (s *MessageService) GetMessages(cmd chat.GetMessagesCommand) ([]chat.Message, *string, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, nil, err
	}
	return s.repository.GetMessages(cmd.TenantID, cmd.ChatID, cmd.Cursor)
}

// SearchMessages runs a tenant-scoped full-text query over message bodies.
func (s *MessageService) SearchMessages(ctx context.Context, tenantID, term string, limit int) ([]search.Hit, error) {
	return s.index.Search(ctx, tenantID, term, limit)
}

func (s *MessageService) indexBestEffort(message chat.Message) {
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Indexing message failed", "message", message.ID.String(), "err", err)
	}
}

func (s *MessageService) dispatch(message chat.Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		s.log.Error("Marshalling message for dispatch failed", "message", message.ID.String(), "err", err)
		return
	}
	s.dispatcher.Dispatch(message.ChatID, payload)
}
