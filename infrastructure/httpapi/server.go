// Package httpapi exposes the staff-facing REST and SSE surface. Routing
// is declarative (chi), authentication is a router-level middleware, and
// every handler resolves the tenant from the token claims, never from the
// request body.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/errors"
	"github.com/demetriomjr/real-state-crm/projection"
	"github.com/demetriomjr/real-state-crm/runtime"
	"github.com/demetriomjr/real-state-crm/services"
)

type Server struct {
	log          *slog.Logger
	hub          *runtime.Hub
	messages     *services.MessageService
	crm          *services.CRMService
	tokens       *auth.TokenManager
	recent       *projection.RecentActivity
	streamBuffer int
}

func NewServer(
	log *slog.Logger,
	hub *runtime.Hub,
	messages *services.MessageService,
	crm *services.CRMService,
	tokens *auth.TokenManager,
	recent *projection.RecentActivity,
	streamBuffer int,
) *Server {
	return &Server{
		log:          log,
		hub:          hub,
		messages:     messages,
		crm:          crm,
		tokens:       tokens,
		recent:       recent,
		streamBuffer: streamBuffer,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Onboarding happens before any token exists.
		r.Post("/onboard", s.handleOnboard)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.tokens, s.log))

			r.Get("/chats/{chatID}/stream", s.handleStream)
			r.Get("/chats/{chatID}/messages", s.handleGetMessages)
			r.Post("/chats/{chatID}/reply", s.handleReply)
			r.Post("/messages", s.handlePostMessage)
			r.Get("/messages/search", s.handleSearch)

			r.Post("/people", s.handleCreatePerson)
			r.Get("/people", s.handleListPeople)
			r.Get("/people/{personID}", s.handleGetPerson)
			r.Post("/leads", s.handleCreateLead)
			r.Get("/leads", s.handleListLeads)
			r.Post("/leads/{leadID}/convert", s.handleConvertLead)
			r.Get("/customers", s.handleListCustomers)
		})
	})

	r.Get("/internal/stats", s.handleStats)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Writing response failed", "err", err)
	}
}

// writeError translates service failures to status codes: validation
// failures are the caller's fault, missing entities are 404, everything
// else is logged and hidden behind a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid validator.ValidationErrors
	switch {
	case stderrors.As(err, &invalid):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": invalid.Error()})
	case stderrors.Is(err, errors.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.log.Error("Request failed", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return false
	}
	return true
}
