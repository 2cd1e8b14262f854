package entities

// InstitutionRole is the users.role value that marks an institution account.
const InstitutionRole = "institution"

// Institution is a registered business as read from the users table.
type Institution struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	RawLocation    *string `json:"raw_location,omitempty" db:"location"`
	SectorID       *string `json:"sector_id,omitempty" db:"sector_id"`
	WhatsAppNumber string  `json:"whatsapp_number,omitempty" db:"whatsapp_number"`
	LogoURL        string  `json:"logo_url,omitempty" db:"logo_url"`
	PlanID         *string `json:"plan_id,omitempty" db:"plan_id"`
}

// HasPlan reports whether the institution is on a paid plan.
func (i *Institution) HasPlan() bool {
	return i.PlanID != nil && *i.PlanID != ""
}

// RankedInstitution is an institution placed relative to the consumer.
type RankedInstitution struct {
	Institution
	Coordinate
	DistanceKm float64 `json:"distance_km"`
	SectorName string  `json:"sector_name,omitempty"`
}

// SectorTranslation is a sector name in one language.
type SectorTranslation struct {
	SectorID string `json:"sector_id" db:"sector_id"`
	Language string `json:"language" db:"language"`
	Name     string `json:"name" db:"name"`
}
