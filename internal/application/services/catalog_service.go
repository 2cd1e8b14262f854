package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/geo"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// CategoryDraft is what the category wizard submits
type CategoryDraft struct {
	InstitutionID string `json:"-"`
	SectorID      string `json:"sector_id"`
	Language      string `json:"language"`
	Name          string `json:"name"`
	Description   string `json:"description"`
}

// DefaultRequiredLanguages must each carry a complete translation
var DefaultRequiredLanguages = []string{"pt", "en", "fr"}

// ServiceDraft is what the service wizard submits. Name and Description are
// the working title of the first two steps; only Translations are stored.
type ServiceDraft struct {
	InstitutionID string                 `json:"-"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	CategoryID    string                 `json:"category_id"`
	Price         float64                `json:"price"`
	ImageURL      string                 `json:"image_url"`
	Translations  []entities.Translation `json:"translations"`
}

// CatalogService creates categories and services for institutions
type CatalogService struct {
	institutions repositories.InstitutionRepository
	categories   repositories.CategoryRepository
	services     repositories.ServiceRepository
	searchRepo   repositories.ServiceSearchRepository
	eventBus     providers.EventBus
	languages    []string
	required     []string
}

// NewCatalogService creates a new catalog service. searchRepo and eventBus may be nil.
func NewCatalogService(
	institutions repositories.InstitutionRepository,
	categories repositories.CategoryRepository,
	services repositories.ServiceRepository,
	searchRepo repositories.ServiceSearchRepository,
	eventBus providers.EventBus,
	languages []string,
) *CatalogService {
	return &CatalogService{
		institutions: institutions,
		categories:   categories,
		services:     services,
		searchRepo:   searchRepo,
		eventBus:     eventBus,
		languages:    languages,
		required:     intersect(DefaultRequiredLanguages, languages),
	}
}

// SetRequiredLanguages replaces the languages whose translation must be
// complete. Languages outside the supported set are ignored.
func (s *CatalogService) SetRequiredLanguages(langs []string) {
	s.required = intersect(langs, s.languages)
}

// CreateCategory stores a category whose single entered translation is
// copied to every supported language, the entered language first.
func (s *CatalogService) CreateCategory(ctx context.Context, draft CategoryDraft) (*entities.Category, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required")
	}
	if !s.supports(draft.Language) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported language: %s", draft.Language))
	}
	if _, err := s.institutions.GetByID(ctx, draft.InstitutionID); err != nil {
		return nil, err
	}

	category := &entities.Category{
		ID:            uuid.NewString(),
		InstitutionID: draft.InstitutionID,
		Translations:  ReplicateTranslation(draft.Language, name, strings.TrimSpace(draft.Description), s.languages),
	}
	if sector := strings.TrimSpace(draft.SectorID); sector != "" {
		category.SectorID = &sector
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.NewCatalogEvent(category.InstitutionID, category.ID, entities.CatalogEventCategoryCreated))
	return category, nil
}

// CreateService validates the wizard steps, then stores the service and its
// translations together.
func (s *CatalogService) CreateService(ctx context.Context, draft ServiceDraft) (*entities.Service, error) {
	translations, err := s.ValidateServiceDraft(draft)
	if err != nil {
		return nil, err
	}
	if _, err := s.institutions.GetByID(ctx, draft.InstitutionID); err != nil {
		return nil, err
	}

	categoryID := strings.TrimSpace(draft.CategoryID)
	service := &entities.Service{
		ID:            uuid.NewString(),
		InstitutionID: draft.InstitutionID,
		CategoryID:    &categoryID,
		Price:         draft.Price,
		ImageURL:      strings.TrimSpace(draft.ImageURL),
		Translations:  translations,
	}

	if err := s.services.Create(ctx, service); err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, service); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("service_id", service.ID).Msg("failed to index service")
		}
	}
	s.publish(ctx, entities.NewCatalogEvent(service.InstitutionID, service.ID, entities.CatalogEventServiceCreated))
	return service, nil
}

// UpdateService runs the same wizard checks as CreateService, then rewrites
// the service of institutionID and replaces its translations.
func (s *CatalogService) UpdateService(ctx context.Context, serviceID string, draft ServiceDraft) (*entities.Service, error) {
	translations, err := s.ValidateServiceDraft(draft)
	if err != nil {
		return nil, err
	}

	existing, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if existing.InstitutionID != draft.InstitutionID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", serviceID))
	}

	categoryID := strings.TrimSpace(draft.CategoryID)
	existing.CategoryID = &categoryID
	existing.Price = draft.Price
	existing.ImageURL = strings.TrimSpace(draft.ImageURL)
	existing.Translations = translations

	if err := s.services.Update(ctx, existing); err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		logger := observability.LoggerFromContext(ctx)
		if err := s.searchRepo.Delete(ctx, existing.ID); err != nil {
			logger.Warn().Err(err).Str("service_id", existing.ID).Msg("failed to drop stale search documents")
		}
		if err := s.searchRepo.Index(ctx, existing); err != nil {
			logger.Warn().Err(err).Str("service_id", existing.ID).Msg("failed to index service")
		}
	}
	s.publish(ctx, entities.NewCatalogEvent(existing.InstitutionID, existing.ID, entities.CatalogEventServiceUpdated))
	return existing, nil
}

// UpdateLocation stores a new position for an institution
func (s *CatalogService) UpdateLocation(ctx context.Context, institutionID string, at entities.Coordinate) error {
	if math.IsNaN(at.Latitude) || math.IsNaN(at.Longitude) || math.Abs(at.Latitude) > 90 || math.Abs(at.Longitude) > 180 {
		return apperrors.NewValidationError("coordinate out of range")
	}
	if err := s.institutions.UpdateLocation(ctx, institutionID, geo.FormatRawLocation(at)); err != nil {
		return err
	}
	s.publish(ctx, entities.NewCatalogEvent(institutionID, institutionID, entities.CatalogEventLocationChanged))
	return nil
}

// ValidateServiceDraft checks the wizard steps in order: name, description,
// category, price, then one step per required language. Other supported
// languages are optional and kept only when both fields are filled in.
// The returned translations follow the supported language order.
func (s *CatalogService) ValidateServiceDraft(draft ServiceDraft) ([]entities.Translation, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, stepError(1, "name", "a name is required")
	}
	if strings.TrimSpace(draft.Description) == "" {
		return nil, stepError(2, "description", "a description is required")
	}
	if strings.TrimSpace(draft.CategoryID) == "" {
		return nil, stepError(3, "category", "a category is required")
	}
	if math.IsNaN(draft.Price) || math.IsInf(draft.Price, 0) || draft.Price < 0 {
		return nil, stepError(4, "price", "price must be a non-negative number")
	}

	byLanguage := make(map[string]entities.Translation, len(draft.Translations))
	for _, t := range draft.Translations {
		t.Language = strings.TrimSpace(t.Language)
		t.Name = strings.TrimSpace(t.Name)
		t.Description = strings.TrimSpace(t.Description)
		if t.Name == "" && t.Description == "" {
			continue
		}
		if !s.supports(t.Language) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("translations: unsupported language %q", t.Language))
		}
		if _, dup := byLanguage[t.Language]; dup {
			return nil, apperrors.NewValidationError(fmt.Sprintf("translations: duplicate language %q", t.Language))
		}
		byLanguage[t.Language] = t
	}

	for i, lang := range s.required {
		if !byLanguage[lang].Complete() {
			return nil, stepError(5+i, "translation "+lang, "both a name and a description are required")
		}
	}

	translations := make([]entities.Translation, 0, len(byLanguage))
	for _, lang := range s.languages {
		if t, ok := byLanguage[lang]; ok && t.Complete() {
			translations = append(translations, t)
		}
	}
	return translations, nil
}

// ReplicateTranslation copies one translation to every language, lang first
func ReplicateTranslation(lang, name, description string, languages []string) []entities.Translation {
	out := []entities.Translation{{Language: lang, Name: name, Description: description}}
	for _, l := range languages {
		if l == lang {
			continue
		}
		out = append(out, entities.Translation{Language: l, Name: name, Description: description})
	}
	return out
}

func (s *CatalogService) publish(ctx context.Context, event *entities.CatalogEvent) {
	if s.eventBus == nil {
		return
	}
	channels := []string{providers.EventChannelCatalogUpdates, providers.GetInstitutionChannel(event.InstitutionID)}
	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("channel", channel).
				Str("event_type", string(event.EventType)).
				Str("institution_id", event.InstitutionID).
				Msg("failed to publish catalog event")
		}
	}
}

func (s *CatalogService) supports(lang string) bool {
	for _, l := range s.languages {
		if l == lang {
			return true
		}
	}
	return false
}

func intersect(langs, supported []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		for _, sl := range supported {
			if l == sl {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

func stepError(step int, name, message string) error {
	return apperrors.NewValidationError(fmt.Sprintf("step %d (%s): %s", step, name, message))
}
