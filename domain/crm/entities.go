// Package crm defines the tenant-scoped CRM entities. Validation rules live
// on the structs; persistence and transport stay out of this package.
package crm

import (
	"time"

	"github.com/google/uuid"
)

// Business is the tenant. Every other entity hangs off a BusinessID.
type Business struct {
	ID        uuid.UUID `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name" validate:"required,min=2,max=120"`
	Country   string    `json:"country" msgpack:"country" validate:"omitempty,iso3166_1_alpha2"`
	CreatedAt time.Time `json:"createdAt" msgpack:"created_at"`
}

// User is a staff member of a business. Credentials are handled by an
// external identity provider; only the identity lives here.
type User struct {
	ID         uuid.UUID `json:"id" msgpack:"id"`
	BusinessID string    `json:"businessId" msgpack:"business_id" validate:"required"`
	FullName   string    `json:"fullName" msgpack:"full_name" validate:"required,min=2,max=120"`
	Email      string    `json:"email" msgpack:"email" validate:"required,email"`
	Roles      []string  `json:"roles" msgpack:"roles" validate:"dive,oneof=admin agent viewer"`
	CreatedAt  time.Time `json:"createdAt" msgpack:"created_at"`
}

// Person is an external contact reachable over WhatsApp.
type Person struct {
	ID         uuid.UUID `json:"id" msgpack:"id"`
	BusinessID string    `json:"businessId" msgpack:"business_id" validate:"required"`
	FullName   string    `json:"fullName" msgpack:"full_name" validate:"required,min=2,max=120"`
	Phone      string    `json:"phone" msgpack:"phone" validate:"required,e164"`
	Email      string    `json:"email" msgpack:"email" validate:"omitempty,email"`
	CreatedAt  time.Time `json:"createdAt" msgpack:"created_at"`
}

// Lead tracks a person's interest in a property before conversion.
type Lead struct {
	ID         uuid.UUID `json:"id" msgpack:"id"`
	BusinessID string    `json:"businessId" msgpack:"business_id" validate:"required"`
	PersonID   string    `json:"personId" msgpack:"person_id" validate:"required"`
	Source     string    `json:"source" msgpack:"source" validate:"required,oneof=whatsapp website referral walk-in"`
	Notes      string    `json:"notes" msgpack:"notes" validate:"max=4096"`
	Stage      string    `json:"stage" msgpack:"stage" validate:"required,oneof=new contacted qualified lost converted"`
	CreatedAt  time.Time `json:"createdAt" msgpack:"created_at"`
}

// Customer is a converted lead.
type Customer struct {
	ID          uuid.UUID `json:"id" msgpack:"id"`
	BusinessID  string    `json:"businessId" msgpack:"business_id" validate:"required"`
	PersonID    string    `json:"personId" msgpack:"person_id" validate:"required"`
	LeadID      string    `json:"leadId" msgpack:"lead_id"`
	ConvertedAt time.Time `json:"convertedAt" msgpack:"converted_at"`
}
