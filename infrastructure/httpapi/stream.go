package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/demetriomjr/real-state-crm/auth"
)

// handleStream upgrades the request to a server-sent-events stream and
// registers the caller with the hub. The handler goroutine only drains the
// sink channel and writes to the wire; all delivery decisions (replay,
// eviction, heartbeats) stay inside the hub.
//
// The stream ends when the client disconnects, when the hub tears the
// subscription down (idle sweep, overflow, replacement by a newer
// subscription from the same user) or when the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "missing claims", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	chatID := chi.URLParam(r, "chatID")

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be RFC 3339"})
			return
		}
		since = &parsed
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := newStreamSink(s.streamBuffer)
	s.hub.Subscribe(claims.UserID, chatID, sink, since)
	defer s.hub.Release(claims.UserID, sink)

	s.log.Info("Stream opened", "user", claims.UserID, "chat", chatID)
	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-sink.frames:
			if !open {
				return
			}
			if _, err := w.Write(frame); err != nil {
				s.log.Debug("Stream write failed, client gone", "user", claims.UserID, "err", err)
				return
			}
			flusher.Flush()
		}
	}
}
