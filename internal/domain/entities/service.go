package entities

import "time"

// Translation is a name and description in one language.
type Translation struct {
	Language    string `json:"language" db:"language"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// Complete reports whether both name and description are filled in.
func (t Translation) Complete() bool {
	return t.Name != "" && t.Description != ""
}

// Service is an offering published by an institution. Translations keep
// insertion order so "first available" is well defined.
type Service struct {
	ID            string        `json:"id" db:"id"`
	InstitutionID string        `json:"institution_id" db:"user_id"`
	CategoryID    *string       `json:"category_id,omitempty" db:"category_id"`
	Price         float64       `json:"price" db:"price"`
	ImageURL      string        `json:"image_url,omitempty" db:"image_url"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	Translations  []Translation `json:"translations" db:"-"`
}

// InCategory reports whether the service belongs to categoryID.
func (s *Service) InCategory(categoryID string) bool {
	return s.CategoryID != nil && *s.CategoryID == categoryID
}

// ResolveTranslation picks the entry for lang, else the first entry.
// ok is false only when there are no translations at all.
func ResolveTranslation(translations []Translation, lang string) (Translation, bool) {
	for _, t := range translations {
		if t.Language == lang {
			return t, true
		}
	}
	if len(translations) > 0 {
		return translations[0], true
	}
	return Translation{}, false
}

// DiscoveryResult is a service flattened for display next to its institution.
type DiscoveryResult struct {
	ServiceID           string  `json:"service_id"`
	InstitutionID       string  `json:"institution_id"`
	CategoryID          *string `json:"category_id,omitempty"`
	Price               float64 `json:"price"`
	ImageURL            string  `json:"image_url,omitempty"`
	InstitutionName     string  `json:"institution_name"`
	InstitutionPhone    string  `json:"institution_phone,omitempty"`
	InstitutionHasPlan  bool    `json:"institution_has_plan"`
	DistanceKm          float64 `json:"distance_km"`
	ResolvedName        string  `json:"resolved_name"`
	ResolvedDescription string  `json:"resolved_description"`
}
