package services

import (
	"context"
	"sort"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

const (
	// NoDescriptionPlaceholder is shown on a service page without any description
	NoDescriptionPlaceholder = "no description"
	// NoCategoryPlaceholder is shown for services outside any known category
	NoCategoryPlaceholder = "no category"
	// UnknownSectorPlaceholder is shown for institutions without a named sector
	UnknownSectorPlaceholder = "N/A"
)

// BrowseService serves the public institution and service pages and the
// institution's own listing, independent of the consumer location.
type BrowseService struct {
	institutions repositories.InstitutionRepository
	categories   repositories.CategoryRepository
	services     repositories.ServiceRepository
}

// NewBrowseService creates a new browse service
func NewBrowseService(
	institutions repositories.InstitutionRepository,
	categories repositories.CategoryRepository,
	services repositories.ServiceRepository,
) *BrowseService {
	return &BrowseService{institutions: institutions, categories: categories, services: services}
}

// InstitutionDetail returns an institution with its services, newest first.
func (s *BrowseService) InstitutionDetail(ctx context.Context, institutionID, lang string) (*entities.InstitutionDetail, error) {
	ctx, span := observability.StartSpan(ctx, "BrowseService.InstitutionDetail")
	defer span.End()

	inst, err := s.institutions.GetByID(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	views, err := s.InstitutionServices(ctx, institutionID, lang)
	if err != nil {
		return nil, err
	}

	return &entities.InstitutionDetail{
		Institution: *inst,
		SectorName:  s.sectorName(ctx, inst, lang),
		Services:    views,
	}, nil
}

// ServiceDetail returns a service joined with its institution.
func (s *BrowseService) ServiceDetail(ctx context.Context, serviceID, lang string) (*entities.ServiceDetail, error) {
	ctx, span := observability.StartSpan(ctx, "BrowseService.ServiceDetail")
	defer span.End()

	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	inst, err := s.institutions.GetByID(ctx, svc.InstitutionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("service not found")
		}
		return nil, err
	}

	names, err := s.categoryNames(ctx, []*entities.Service{svc}, lang)
	if err != nil {
		return nil, err
	}
	view := toServiceView(svc, names, lang)
	if view.Description == "" {
		view.Description = NoDescriptionPlaceholder
	}

	return &entities.ServiceDetail{
		ServiceView:      view,
		InstitutionName:  inst.Name,
		InstitutionPhone: inst.WhatsAppNumber,
		SectorName:       s.sectorName(ctx, inst, lang),
	}, nil
}

// InstitutionServices lists the services of one institution, newest first,
// with category names resolved in lang.
func (s *BrowseService) InstitutionServices(ctx context.Context, institutionID, lang string) ([]entities.ServiceView, error) {
	services, err := s.services.ListByInstitutions(ctx, []string{institutionID})
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx, services, lang)
	if err != nil {
		return nil, err
	}

	views := make([]entities.ServiceView, 0, len(services))
	for _, svc := range services {
		if svc == nil || svc.InstitutionID != institutionID {
			continue
		}
		views = append(views, toServiceView(svc, names, lang))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

// InstitutionCategories lists the categories an institution created.
func (s *BrowseService) InstitutionCategories(ctx context.Context, institutionID, lang string) ([]entities.CategoryView, error) {
	categories, err := s.categories.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	views := make([]entities.CategoryView, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		views = append(views, toCategoryView(c, lang))
	}
	return views, nil
}

func (s *BrowseService) categoryNames(ctx context.Context, services []*entities.Service, lang string) (map[string]string, error) {
	seen := make(map[string]bool)
	ids := []string{}
	for _, svc := range services {
		if svc == nil || svc.CategoryID == nil || seen[*svc.CategoryID] {
			continue
		}
		seen[*svc.CategoryID] = true
		ids = append(ids, *svc.CategoryID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	categories, err := s.categories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		if c != nil {
			names[c.ID], _ = resolveText(c.Translations, lang, NoCategoryPlaceholder)
		}
	}
	return names, nil
}

// sectorName is best effort: a lookup failure shows the placeholder.
func (s *BrowseService) sectorName(ctx context.Context, inst *entities.Institution, lang string) string {
	if inst.SectorID == nil {
		return UnknownSectorPlaceholder
	}
	translations, err := s.institutions.SectorNames(ctx, []string{*inst.SectorID})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("sector_id", *inst.SectorID).Msg("failed to load sector name")
		return UnknownSectorPlaceholder
	}

	names := make([]entities.Translation, 0, len(translations))
	for _, t := range translations {
		if t.SectorID == *inst.SectorID {
			names = append(names, entities.Translation{Language: t.Language, Name: t.Name})
		}
	}
	name, _ := resolveText(names, lang, UnknownSectorPlaceholder)
	return name
}

func toServiceView(svc *entities.Service, categoryNames map[string]string, lang string) entities.ServiceView {
	name, description := ResolveText(svc.Translations, lang)
	view := entities.ServiceView{
		ID:            svc.ID,
		InstitutionID: svc.InstitutionID,
		CategoryID:    svc.CategoryID,
		CategoryName:  NoCategoryPlaceholder,
		Price:         svc.Price,
		ImageURL:      svc.ImageURL,
		Name:          name,
		Description:   description,
		CreatedAt:     svc.CreatedAt,
	}
	if svc.CategoryID != nil {
		if n, ok := categoryNames[*svc.CategoryID]; ok {
			view.CategoryName = n
		}
	}
	return view
}

func toCategoryView(c *entities.Category, lang string) entities.CategoryView {
	name, _ := ResolveText(c.Translations, lang)
	view := entities.CategoryView{ID: c.ID, ResolvedName: name}
	if c.SectorID != nil {
		view.SectorID = *c.SectorID
	}
	return view
}
