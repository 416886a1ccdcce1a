package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/domain/chat"
)

const defaultSearchLimit = 20

type postMessageRequest struct {
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// handlePostMessage ingests one inbound message relayed by the automation
// engine. The engine timestamps messages at the WhatsApp edge; a missing
// timestamp falls back to arrival time.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var body postMessageRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.CreatedAt.IsZero() {
		body.CreatedAt = time.Now().UTC()
	}

	message, err := s.messages.PostMessage(r.Context(), chat.PostMessageCommand{
		TenantID:  claims.TenantID,
		ChatID:    body.ChatID,
		SenderID:  body.SenderID,
		Text:      body.Text,
		CreatedAt: body.CreatedAt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, message)
}

type replyRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var body replyRequest
	if !s.decode(w, r, &body) {
		return
	}

	message, err := s.messages.Reply(r.Context(), chat.ReplyCommand{
		TenantID: claims.TenantID,
		ChatID:   chi.URLParam(r, "chatID"),
		UserID:   claims.UserID,
		Text:     body.Text,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, message)
}

type messagesPage struct {
	Messages   []chat.Message `json:"messages"`
	NextCursor *string        `json:"nextCursor,omitempty"`
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	cmd := chat.GetMessagesCommand{
		TenantID: claims.TenantID,
		ChatID:   chi.URLParam(r, "chatID"),
	}
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cmd.Cursor = &raw
	}

	messages, next, err := s.messages.GetMessages(cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messagesPage{Messages: messages, NextCursor: next})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	term := r.URL.Query().Get("q")
	if term == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	hits, err := s.messages.SearchMessages(r.Context(), claims.TenantID, term, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
