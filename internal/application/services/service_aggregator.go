package services

import (
	"context"
	"sort"
	"strings"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/domain/result"
)

// NoNamePlaceholder is shown for services without any translation
const NoNamePlaceholder = "no name"

// ServiceAggregator flattens the services of ranked institutions into results
type ServiceAggregator struct {
	repo repositories.ServiceRepository
}

// NewServiceAggregator creates a new aggregator
func NewServiceAggregator(repo repositories.ServiceRepository) *ServiceAggregator {
	return &ServiceAggregator{repo: repo}
}

// Aggregate fetches the services of ranked, resolves their text in lang,
// applies the query filters and orders the results by institution distance.
func (a *ServiceAggregator) Aggregate(ctx context.Context, ranked []entities.RankedInstitution, lang string, query entities.DiscoveryQuery) result.Result[entities.DiscoveryResult] {
	if len(ranked) == 0 {
		return result.Empty[entities.DiscoveryResult]()
	}

	byID := make(map[string]entities.RankedInstitution, len(ranked))
	ids := make([]string, 0, len(ranked))
	for _, inst := range ranked {
		if _, seen := byID[inst.ID]; seen {
			continue
		}
		byID[inst.ID] = inst
		ids = append(ids, inst.ID)
	}

	services, err := a.repo.ListByInstitutions(ctx, ids)
	if err != nil {
		return result.Failed[entities.DiscoveryResult](err)
	}

	return result.OK(AggregateServices(services, byID, lang, query))
}

// AggregateServices is the pure part of Aggregate. Services whose institution
// is not in ranked are skipped.
func AggregateServices(services []*entities.Service, ranked map[string]entities.RankedInstitution, lang string, query entities.DiscoveryQuery) []entities.DiscoveryResult {
	results := make([]entities.DiscoveryResult, 0, len(services))
	for _, svc := range services {
		if svc == nil {
			continue
		}
		inst, ok := ranked[svc.InstitutionID]
		if !ok {
			continue
		}
		r := ToDiscoveryResult(svc, inst, lang)
		if !MatchesText(r, query.SearchText) || !MatchesCategory(r, query.CategoryID) {
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results
}

// ToDiscoveryResult joins a service with its institution and resolves its
// name and description in lang.
func ToDiscoveryResult(svc *entities.Service, inst entities.RankedInstitution, lang string) entities.DiscoveryResult {
	name, description := ResolveText(svc.Translations, lang)
	return entities.DiscoveryResult{
		ServiceID:           svc.ID,
		InstitutionID:       svc.InstitutionID,
		CategoryID:          svc.CategoryID,
		Price:               svc.Price,
		ImageURL:            svc.ImageURL,
		InstitutionName:     inst.Name,
		InstitutionPhone:    inst.WhatsAppNumber,
		InstitutionHasPlan:  inst.HasPlan(),
		DistanceKm:          inst.DistanceKm,
		ResolvedName:        name,
		ResolvedDescription: description,
	}
}

// ResolveText picks the name and description for lang. Each field falls back
// on its own to the first non-empty value in any language; a missing name
// becomes the placeholder and a missing description stays empty.
func ResolveText(translations []entities.Translation, lang string) (string, string) {
	return resolveText(translations, lang, NoNamePlaceholder)
}

func resolveText(translations []entities.Translation, lang, placeholder string) (string, string) {
	var name, description string
	for _, t := range translations {
		if t.Language == lang {
			name, description = t.Name, t.Description
			break
		}
	}
	for _, t := range translations {
		if name == "" {
			name = t.Name
		}
		if description == "" {
			description = t.Description
		}
	}
	if name == "" {
		name = placeholder
	}
	return name, description
}

// MatchesText reports whether text occurs in the resolved name or description,
// ignoring case. Blank text matches everything; otherwise surrounding spaces
// are part of the term.
func MatchesText(r entities.DiscoveryResult, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(r.ResolvedName), needle) ||
		strings.Contains(strings.ToLower(r.ResolvedDescription), needle)
}

// MatchesCategory reports whether the result is in categoryID. Empty and
// entities.AllCategories match everything.
func MatchesCategory(r entities.DiscoveryResult, categoryID string) bool {
	if categoryID == "" || categoryID == entities.AllCategories {
		return true
	}
	return r.CategoryID != nil && *r.CategoryID == categoryID
}
