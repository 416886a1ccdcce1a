package crm

// Commands carried from the transport layer into the CRM services.
// Tenant scoping comes from the caller's token, never from the body.

// OnboardBusinessCommand creates a tenant and its first admin user in one
// step. It is the only command that does not carry a BusinessID: the tenant
// does not exist yet.
type OnboardBusinessCommand struct {
	BusinessName string `json:"businessName" validate:"required,min=2,max=120"`
	Country      string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	AdminName    string `json:"adminName" validate:"required,min=2,max=120"`
	AdminEmail   string `json:"adminEmail" validate:"required,email"`
}

type CreatePersonCommand struct {
	BusinessID string `validate:"required"`
	FullName   string `json:"fullName" validate:"required,min=2,max=120"`
	Phone      string `json:"phone" validate:"required,e164"`
	Email      string `json:"email" validate:"omitempty,email"`
}

type CreateLeadCommand struct {
	BusinessID string `validate:"required"`
	PersonID   string `json:"personId" validate:"required"`
	Source     string `json:"source" validate:"required,oneof=whatsapp website referral walk-in"`
	Notes      string `json:"notes" validate:"max=4096"`
}

type ConvertLeadCommand struct {
	BusinessID string `validate:"required"`
	LeadID     string `json:"leadId" validate:"required"`
}
