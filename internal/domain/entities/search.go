package entities

// ServiceDocument is one service translation as stored in the search index.
type ServiceDocument struct {
	ID            string  `json:"id"`
	ServiceID     string  `json:"service_id"`
	InstitutionID string  `json:"institution_id"`
	CategoryID    string  `json:"category_id,omitempty"`
	Language      string  `json:"language"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"image_url,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

// SearchHit is a service returned by the global search box.
type SearchHit struct {
	ServiceID     string  `json:"service_id"`
	InstitutionID string  `json:"institution_id"`
	CategoryID    string  `json:"category_id,omitempty"`
	Name          string  `json:"name"`
	DisplayName   string  `json:"display_name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	PriceLabel    string  `json:"price_label"`
	ImageURL      string  `json:"image_url,omitempty"`
}
