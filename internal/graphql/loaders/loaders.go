package loaders

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	InstitutionLoader *dataloader.Loader[string, *entities.Institution]
	CategoryLoader    *dataloader.Loader[string, *entities.Category]
}

// NewLoaders creates a new set of loaders. Create one per request so cached
// rows never outlive it.
func NewLoaders(institutions repositories.InstitutionRepository, categories repositories.CategoryRepository) *Loaders {
	return &Loaders{
		InstitutionLoader: dataloader.NewBatchedLoader(
			batchByID(institutions.GetByIDs, func(i *entities.Institution) string { return i.ID }, "institution"),
		),
		CategoryLoader: dataloader.NewBatchedLoader(
			batchByID(categories.GetByIDs, func(c *entities.Category) string { return c.ID }, "category"),
		),
	}
}

// batchByID answers each key from one fetch of all keys. Keys the fetch did
// not return get a not-found error of their own.
func batchByID[T any](
	fetch func(ctx context.Context, ids []string) ([]T, error),
	idOf func(T) string,
	kind string,
) dataloader.BatchFunc[string, T] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[T] {
		results := make([]*dataloader.Result[T], len(keys))
		rows, err := fetch(ctx, keys)

		byID := make(map[string]T, len(rows))
		if err == nil {
			for _, row := range rows {
				byID[idOf(row)] = row
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[T]{Error: err}
			} else if row, ok := byID[key]; ok {
				results[i] = &dataloader.Result[T]{Data: row}
			} else {
				results[i] = &dataloader.Result[T]{Error: apperrors.NewNotFoundError(kind + " " + key + " not found")}
			}
		}
		return results
	}
}

// For returns the loaders for a given context
func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
