package repositories

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// ServiceRepository defines the interface for service data operations
type ServiceRepository interface {
	// ListByInstitutions retrieves services owned by any of the institutions,
	// each with all of its translations in insertion order
	ListByInstitutions(ctx context.Context, institutionIDs []string) ([]*entities.Service, error)

	// GetByID retrieves a service with its translations
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// Create inserts the service and its translations atomically
	Create(ctx context.Context, service *entities.Service) error

	// Update rewrites category, price and image, and replaces the
	// translations when any are given, atomically
	Update(ctx context.Context, service *entities.Service) error

	// SearchText matches name or description in one language, case-insensitively
	SearchText(ctx context.Context, params ServiceSearchParams) ([]*entities.Service, error)

	// ListAll pages through every service, used to rebuild the search index
	ListAll(ctx context.Context, limit, offset int) ([]*entities.Service, error)
}

// ServiceSearchParams defines parameters for a global service search
type ServiceSearchParams struct {
	Query      string
	Language   string
	CategoryID string
	Limit      int
	Offset     int
}

// ServiceSearchRepository is a full-text index over service translations
type ServiceSearchRepository interface {
	// Search returns matching documents ordered by relevance
	Search(ctx context.Context, params ServiceSearchParams) ([]*entities.ServiceDocument, error)

	// Index upserts one document per translation of the service
	Index(ctx context.Context, service *entities.Service) error

	// Delete removes every document of the service
	Delete(ctx context.Context, serviceID string) error
}
