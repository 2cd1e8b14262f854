package repositories

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	// ListBySectors retrieves categories whose sector is in sectorIDs
	ListBySectors(ctx context.Context, sectorIDs []string) ([]*entities.Category, error)

	// ListByInstitution retrieves the categories an institution created
	ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Category, error)

	// GetByIDs retrieves the categories that exist among ids
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Category, error)

	// Create inserts the category and its translations atomically
	Create(ctx context.Context, category *entities.Category) error
}
