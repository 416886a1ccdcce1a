package services

import (
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/demetriomjr/real-state-crm/domain/crm"
	"github.com/demetriomjr/real-state-crm/repositories"
)

// CRMService is the thin CRUD layer over the tenant-scoped entities.
// Declarative validation happens here; the repository stays dumb.
type CRMService struct {
	log        *slog.Logger
	validate   *validator.Validate
	repository repositories.CRMRepository
	clock      clock.Clock
}

func NewCRMService(log *slog.Logger, repository repositories.CRMRepository, clk clock.Clock) *CRMService {
	return &CRMService{
		log:        log,
		validate:   validator.New(),
		repository: repository,
		clock:      clk,
	}
}

// OnboardBusiness creates the tenant and its first admin user atomically
// from the caller's point of view: a failure on the user rolls nothing
// back, but the business without users is invisible to every tenant-scoped
// query and a retry simply creates a fresh tenant.
func (s *CRMService) OnboardBusiness(cmd crm.OnboardBusinessCommand) (crm.Business, crm.User, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return crm.Business{}, crm.User{}, err
	}
	business := crm.Business{
		ID:        uuid.New(),
		Name:      cmd.BusinessName,
		Country:   cmd.Country,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repository.StoreBusiness(business); err != nil {
		return crm.Business{}, crm.User{}, fmt.Errorf("storing business: %w", err)
	}
	admin := crm.User{
		ID:         uuid.New(),
		BusinessID: business.ID.String(),
		FullName:   cmd.AdminName,
		Email:      cmd.AdminEmail,
		Roles:      []string{"admin"},
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repository.StoreUser(admin); err != nil {
		return crm.Business{}, crm.User{}, fmt.Errorf("storing admin user: %w", err)
	}
	s.log.Info("Business onboarded", "business", business.ID.String(), "admin", admin.ID.String())
	return business, admin, nil
}

func (s *CRMService) CreatePerson(cmd crm.CreatePersonCommand) (crm.Person, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return crm.Person{}, err
	}
	person := crm.Person{
		ID:         uuid.New(),
		BusinessID: cmd.BusinessID,
		FullName:   cmd.FullName,
		Phone:      cmd.Phone,
		Email:      cmd.Email,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repository.StorePerson(person); err != nil {
		return crm.Person{}, fmt.Errorf("storing person: %w", err)
	}
	return person, nil
}

func (s *CRMService) GetPerson(tenantID, id string) (crm.Person, error) {
	return s.repository.GetPerson(tenantID, id)
}

func (s *CRMService) ListPeople(tenantID string) ([]crm.Person, error) {
	return s.repository.ListPeople(tenantID)
}

// CreateLead opens a lead in the "new" stage for an existing person.
func (s *CRMService) CreateLead(cmd crm.CreateLeadCommand) (crm.Lead, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return crm.Lead{}, err
	}
	if _, err := s.repository.GetPerson(cmd.BusinessID, cmd.PersonID); err != nil {
		return crm.Lead{}, fmt.Errorf("resolving person %s: %w", cmd.PersonID, err)
	}
	lead := crm.Lead{
		ID:         uuid.New(),
		BusinessID: cmd.BusinessID,
		PersonID:   cmd.PersonID,
		Source:     cmd.Source,
		Notes:      cmd.Notes,
		Stage:      "new",
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repository.StoreLead(lead); err != nil {
		return crm.Lead{}, fmt.Errorf("storing lead: %w", err)
	}
	return lead, nil
}

func (s *CRMService) ListLeads(tenantID string) ([]crm.Lead, error) {
	return s.repository.ListLeads(tenantID)
}

// ConvertLead moves a lead to the "converted" stage and creates the
// customer record pointing back at it.
func (s *CRMService) ConvertLead(cmd crm.ConvertLeadCommand) (crm.Customer, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return crm.Customer{}, err
	}
	lead, err := s.repository.GetLead(cmd.BusinessID, cmd.LeadID)
	if err != nil {
		return crm.Customer{}, fmt.Errorf("resolving lead %s: %w", cmd.LeadID, err)
	}

	lead.Stage = "converted"
	if err := s.repository.StoreLead(lead); err != nil {
		return crm.Customer{}, fmt.Errorf("updating lead stage: %w", err)
	}

	customer := crm.Customer{
		ID:          uuid.New(),
		BusinessID:  cmd.BusinessID,
		PersonID:    lead.PersonID,
		LeadID:      lead.ID.String(),
		ConvertedAt: s.clock.Now().UTC(),
	}
	if err := s.repository.StoreCustomer(customer); err != nil {
		return crm.Customer{}, fmt.Errorf("storing customer: %w", err)
	}
	return customer, nil
}

func (s *CRMService) ListCustomers(tenantID string) ([]crm.Customer, error) {
	return s.repository.ListCustomers(tenantID)
}
