package entities

// AllCategories is the category filter value that disables category filtering.
const AllCategories = "all"

// Category groups services of one institution within a sector.
type Category struct {
	ID            string        `json:"id" db:"id"`
	InstitutionID string        `json:"institution_id" db:"user_id"`
	SectorID      *string       `json:"sector_id,omitempty" db:"sector_id"`
	Translations  []Translation `json:"translations" db:"-"`
}

// CategoryView is a category with its name resolved for one language.
type CategoryView struct {
	ID           string `json:"id"`
	SectorID     string `json:"sector_id,omitempty"`
	ResolvedName string `json:"name"`
}
