package services

import (
	"context"
	"strings"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchService answers the global search box
type SearchService struct {
	searchRepo repositories.ServiceSearchRepository
	services   repositories.ServiceRepository
	presenter  *Presenter
}

// NewSearchService creates a new search service. searchRepo may be nil, in
// which case every search goes to the database.
func NewSearchService(searchRepo repositories.ServiceSearchRepository, services repositories.ServiceRepository, presenter *Presenter) *SearchService {
	return &SearchService{searchRepo: searchRepo, services: services, presenter: presenter}
}

// Search uses the search index when available, falling back to the database
func (s *SearchService) Search(ctx context.Context, params repositories.ServiceSearchParams) ([]entities.SearchHit, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Limit <= 0 {
		params.Limit = defaultSearchLimit
	}
	if params.Limit > maxSearchLimit {
		params.Limit = maxSearchLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	if s.searchRepo != nil {
		docs, err := s.searchRepo.Search(ctx, params)
		if err == nil {
			return s.hitsFromDocuments(docs), nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index failed, falling back to database")
	}

	services, err := s.services.SearchText(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.hitsFromServices(services, params.Language), nil
}

func (s *SearchService) hitsFromDocuments(docs []*entities.ServiceDocument) []entities.SearchHit {
	hits := make([]entities.SearchHit, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		name := d.Name
		if name == "" {
			name = NoNamePlaceholder
		}
		hits = append(hits, entities.SearchHit{
			ServiceID:     d.ServiceID,
			InstitutionID: d.InstitutionID,
			CategoryID:    d.CategoryID,
			Name:          name,
			DisplayName:   TruncateName(name),
			Description:   d.Description,
			Price:         d.Price,
			PriceLabel:    s.presenter.FormatPrice(d.Price),
			ImageURL:      d.ImageURL,
		})
	}
	return hits
}

func (s *SearchService) hitsFromServices(services []*entities.Service, lang string) []entities.SearchHit {
	hits := make([]entities.SearchHit, 0, len(services))
	for _, svc := range services {
		if svc == nil {
			continue
		}
		name, description := ResolveText(svc.Translations, lang)
		hit := entities.SearchHit{
			ServiceID:     svc.ID,
			InstitutionID: svc.InstitutionID,
			Name:          name,
			DisplayName:   TruncateName(name),
			Description:   description,
			Price:         svc.Price,
			PriceLabel:    s.presenter.FormatPrice(svc.Price),
			ImageURL:      svc.ImageURL,
		}
		if svc.CategoryID != nil {
			hit.CategoryID = *svc.CategoryID
		}
		hits = append(hits, hit)
	}
	return hits
}
