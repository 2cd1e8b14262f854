package resolvers

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/graphql/executor"
)

// Fields returns the field resolvers keyed by "Type.field". Fields missing
// here are read from the parent model.
func (r *Resolver) Fields() map[string]executor.FieldFunc {
	return map[string]executor.FieldFunc{
		"Query.nearbyServices": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			loc, err := locationArgs(args)
			if err != nil {
				return nil, err
			}
			limit, err := executor.Int(args, "limit", 0)
			if err != nil {
				return nil, err
			}
			return r.NearbyServices(ctx, loc, entities.DiscoveryQuery{
				SearchText: executor.String(args, "q"),
				CategoryID: executor.String(args, "category"),
				Limit:      limit,
			})
		},
		"Query.nearbyInstitutions": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			loc, err := locationArgs(args)
			if err != nil {
				return nil, err
			}
			return r.NearbyInstitutions(ctx, loc), nil
		},
		"Query.nearbyCategories": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			loc, err := locationArgs(args)
			if err != nil {
				return nil, err
			}
			return r.NearbyCategories(ctx, loc), nil
		},
		"Query.searchServices": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			limit, err := executor.Int(args, "limit", 0)
			if err != nil {
				return nil, err
			}
			offset, err := executor.Int(args, "offset", 0)
			if err != nil {
				return nil, err
			}
			return r.SearchServices(ctx, repositories.ServiceSearchParams{
				Query:      executor.String(args, "q"),
				Language:   executor.String(args, "lang"),
				CategoryID: executor.String(args, "category"),
				Limit:      limit,
				Offset:     offset,
			})
		},
		"Query.institution": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return r.Institution(ctx, executor.String(args, "id"), executor.String(args, "lang"))
		},
		"Query.service": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return r.Service(ctx, executor.String(args, "id"), executor.String(args, "lang"))
		},
		"Query.dashboard": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return r.Dashboard(ctx, executor.String(args, "institutionId"))
		},
		"Query.interactionsByMonth": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return r.InteractionsByMonth(ctx, executor.String(args, "institutionId"), executor.String(args, "lang"))
		},

		"DiscoveredService.institution": func(ctx context.Context, obj any, _ map[string]any) (any, error) {
			svc, err := executor.As[DiscoveredService](obj)
			if err != nil {
				return nil, err
			}
			return institution(ctx, svc.InstitutionID)
		},
		"SearchHit.institution": func(ctx context.Context, obj any, _ map[string]any) (any, error) {
			hit, err := executor.As[SearchHit](obj)
			if err != nil {
				return nil, err
			}
			return institution(ctx, hit.InstitutionID)
		},
		"SearchHit.category": func(ctx context.Context, obj any, _ map[string]any) (any, error) {
			hit, err := executor.As[SearchHit](obj)
			if err != nil {
				return nil, err
			}
			return category(ctx, hit.CategoryID, hit.Language)
		},
		"ServicePage.institution": func(ctx context.Context, obj any, _ map[string]any) (any, error) {
			page, err := executor.As[ServicePage](obj)
			if err != nil {
				return nil, err
			}
			return institution(ctx, page.InstitutionID)
		},
	}
}

func locationArgs(args map[string]any) (LocationArgs, error) {
	lat, err := executor.Float(args, "lat")
	if err != nil {
		return LocationArgs{}, err
	}
	lng, err := executor.Float(args, "lng")
	if err != nil {
		return LocationArgs{}, err
	}
	return LocationArgs{
		Lat:           lat,
		Lng:           lng,
		Address:       executor.String(args, "address"),
		LocationError: executor.String(args, "locationError"),
		Lang:          executor.String(args, "lang"),
	}, nil
}
