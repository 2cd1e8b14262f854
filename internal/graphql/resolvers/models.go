package resolvers

import (
	"time"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// Field names follow the schema through json tags. Fields tagged "-" carry
// keys for nested resolvers.

// Discovery is the outcome of a nearby query
type Discovery[T any] struct {
	Status     entities.DiscoveryStatus `json:"status"`
	Generation uint64                   `json:"generation"`
	Language   string                   `json:"language"`
	Location   *entities.Coordinate     `json:"location"`
	Failure    *string                  `json:"failure"`
	Items      []T                      `json:"items"`
}

type DiscoveredService struct {
	ServiceID     string  `json:"serviceId"`
	InstitutionID string  `json:"-"`
	Name          string  `json:"name"`
	DisplayName   string  `json:"displayName"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	PriceLabel    string  `json:"priceLabel"`
	ImageURL      *string `json:"imageUrl"`
	CategoryID    *string `json:"categoryId"`
	DistanceKm    float64 `json:"distanceKm"`
}

type Institution struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	LogoURL  *string `json:"logoUrl"`
	SectorID *string `json:"sectorId"`
	HasPlan  bool    `json:"hasPlan"`
}

type NearbyInstitution struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Phone      *string             `json:"phone"`
	SectorName *string             `json:"sectorName"`
	HasPlan    bool                `json:"hasPlan"`
	DistanceKm float64             `json:"distanceKm"`
	Location   entities.Coordinate `json:"location"`
}

type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	SectorID *string `json:"sectorId"`
}

type SearchHit struct {
	ServiceID     string  `json:"serviceId"`
	InstitutionID string  `json:"-"`
	CategoryID    string  `json:"-"`
	Language      string  `json:"-"`
	Name          string  `json:"name"`
	DisplayName   string  `json:"displayName"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	PriceLabel    string  `json:"priceLabel"`
	ImageURL      *string `json:"imageUrl"`
}

type ServiceSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	PriceLabel   string    `json:"priceLabel"`
	ImageURL     *string   `json:"imageUrl"`
	CategoryID   *string   `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	CreatedAt    time.Time `json:"createdAt"`
}

type InstitutionPage struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Phone      *string          `json:"phone"`
	LogoURL    *string          `json:"logoUrl"`
	SectorName string           `json:"sectorName"`
	Services   []ServiceSummary `json:"services"`
}

type ServicePage struct {
	ServiceSummary
	InstitutionID    string  `json:"-"`
	InstitutionName  string  `json:"institutionName"`
	InstitutionPhone *string `json:"institutionPhone"`
	SectorName       string  `json:"sectorName"`
}

type MonthlyCount struct {
	Current          int `json:"current"`
	Previous         int `json:"previous"`
	PercentageChange int `json:"percentageChange"`
}

type DashboardStats struct {
	InstitutionID string       `json:"institutionId"`
	Interactions  MonthlyCount `json:"interactions"`
	Services      MonthlyCount `json:"services"`
	Categories    MonthlyCount `json:"categories"`
}

type MonthlySeries struct {
	InstitutionID string   `json:"institutionId"`
	Year          int      `json:"year"`
	Language      string   `json:"language"`
	Months        []string `json:"months"`
	Counts        []int    `json:"counts"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toInstitution(i *entities.Institution) *Institution {
	return &Institution{
		ID:       i.ID,
		Name:     i.Name,
		Phone:    optional(i.WhatsAppNumber),
		LogoURL:  optional(i.LogoURL),
		SectorID: i.SectorID,
		HasPlan:  i.HasPlan(),
	}
}

func toMonthlyCount(c entities.MonthlyCount) MonthlyCount {
	return MonthlyCount{Current: c.Current, Previous: c.Previous, PercentageChange: c.PercentageChange}
}
