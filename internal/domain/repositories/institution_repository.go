package repositories

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// InstitutionRepository reads institution accounts
type InstitutionRepository interface {
	// List retrieves all institutions, with or without a location
	List(ctx context.Context) ([]*entities.Institution, error)

	// GetByID retrieves an institution by ID
	GetByID(ctx context.Context, id string) (*entities.Institution, error)

	// GetByIDs retrieves the institutions that exist among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error)

	// UpdateLocation replaces the free-text location of an institution
	UpdateLocation(ctx context.Context, id, rawLocation string) error

	// SectorNames retrieves sector translations for the given sectors
	SectorNames(ctx context.Context, sectorIDs []string) ([]entities.SectorTranslation, error)
}
