package entities

import "time"

// ContactChannel is the medium a consumer used to reach an institution.
type ContactChannel string

const ContactChannelWhatsApp ContactChannel = "whatsapp"

// Interaction records one contact attempt against an institution.
type Interaction struct {
	ID        string         `json:"id" db:"id"`
	CompanyID string         `json:"company_id" db:"company_id"`
	ServiceID *string        `json:"service_id,omitempty" db:"service_id"`
	Channel   ContactChannel `json:"channel" db:"channel"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// ContactLink is the deep link returned for a contact action.
type ContactLink struct {
	URL     string `json:"url"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}
