package entities

import "time"

// ServiceView is a service with its text resolved for one language.
type ServiceView struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	CategoryID    *string   `json:"category_id,omitempty"`
	CategoryName  string    `json:"category_name,omitempty"`
	Price         float64   `json:"price"`
	ImageURL      string    `json:"image_url,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// InstitutionDetail is the public page of an institution.
type InstitutionDetail struct {
	Institution
	SectorName string        `json:"sector_name"`
	Services   []ServiceView `json:"services"`
}

// ServiceDetail is the public page of a service.
type ServiceDetail struct {
	ServiceView
	InstitutionName  string `json:"institution_name"`
	InstitutionPhone string `json:"institution_phone,omitempty"`
	SectorName       string `json:"sector_name"`
}
