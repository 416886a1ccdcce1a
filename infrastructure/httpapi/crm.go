package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/domain/crm"
)

type onboardResponse struct {
	Business crm.Business `json:"business"`
	Admin    crm.User     `json:"admin"`
	Token    string       `json:"token"`
}

// handleOnboard creates the tenant with its first admin user and answers
// with a signed token so the caller can use the API immediately.
func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var cmd crm.OnboardBusinessCommand
	if !s.decode(w, r, &cmd) {
		return
	}

	business, admin, err := s.crm.OnboardBusiness(cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.tokens.Generate(admin.ID.String(), business.ID.String(), admin.Roles)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, onboardResponse{Business: business, Admin: admin, Token: token})
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var cmd crm.CreatePersonCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	cmd.BusinessID = claims.TenantID

	person, err := s.crm.CreatePerson(cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, person)
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	people, err := s.crm.ListPeople(claims.TenantID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	person, err := s.crm.GetPerson(claims.TenantID, chi.URLParam(r, "personID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var cmd crm.CreateLeadCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	cmd.BusinessID = claims.TenantID

	lead, err := s.crm.CreateLead(cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	leads, err := s.crm.ListLeads(claims.TenantID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	customer, err := s.crm.ConvertLead(crm.ConvertLeadCommand{
		BusinessID: claims.TenantID,
		LeadID:     chi.URLParam(r, "leadID"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	customers, err := s.crm.ListCustomers(claims.TenantID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}
