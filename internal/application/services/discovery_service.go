package services

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/domain/result"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

const (
	discoveryKindServices     = "services"
	discoveryKindInstitutions = "institutions"
	discoveryKindCategories   = "categories"
)

// DiscoveryConfig holds the language policy of the discovery pipeline
type DiscoveryConfig struct {
	DefaultLanguage    string
	SupportedLanguages []string
}

func (c DiscoveryConfig) supports(lang string) bool {
	for _, l := range c.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// DiscoveryService runs the proximity discovery pipeline:
// location, then ranking, then aggregation.
type DiscoveryService struct {
	resolver   *LocationResolver
	ranker     *InstitutionRanker
	aggregator *ServiceAggregator
	institutes repositories.InstitutionRepository
	categories repositories.CategoryRepository
	store      providers.LocationStore
	tracker    *RequestTracker
	config     DiscoveryConfig
	metrics    *observability.Metrics
}

// NewDiscoveryService creates a new discovery service. metrics may be nil.
func NewDiscoveryService(
	resolver *LocationResolver,
	ranker *InstitutionRanker,
	aggregator *ServiceAggregator,
	institutes repositories.InstitutionRepository,
	categories repositories.CategoryRepository,
	store providers.LocationStore,
	config DiscoveryConfig,
	metrics *observability.Metrics,
) *DiscoveryService {
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = "pt"
	}
	if len(config.SupportedLanguages) == 0 {
		config.SupportedLanguages = []string{config.DefaultLanguage}
	}
	return &DiscoveryService{
		resolver:   resolver,
		ranker:     ranker,
		aggregator: aggregator,
		institutes: institutes,
		categories: categories,
		store:      store,
		tracker:    NewRequestTracker(),
		config:     config,
		metrics:    metrics,
	}
}

// Session builds the discovery context for a client. A supported override
// wins over the stored preference, which wins over the default language.
func (s *DiscoveryService) Session(ctx context.Context, clientID, override string) entities.Session {
	session := entities.Session{ClientID: clientID, Language: s.config.DefaultLanguage}
	if override != "" && s.config.supports(override) {
		session.Language = override
		return session
	}

	stored, err := s.store.GetLanguage(ctx, clientID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("client_id", clientID).Msg("failed to read language preference")
		return session
	}
	if stored != "" && s.config.supports(stored) {
		session.Language = stored
	}
	return session
}

// SetLanguage persists the display language for a client
func (s *DiscoveryService) SetLanguage(ctx context.Context, clientID, lang string) error {
	if !s.config.supports(lang) {
		return apperrors.NewValidationError("unsupported language: " + lang)
	}
	if err := s.store.SetLanguage(ctx, clientID, lang); err != nil {
		return apperrors.NewInternalError("failed to store language", err)
	}
	return nil
}

// RefreshLocation drops the cached coordinate of a client
func (s *DiscoveryService) RefreshLocation(ctx context.Context, clientID string) error {
	if err := s.resolver.Refresh(ctx, clientID); err != nil {
		return apperrors.NewInternalError("failed to clear location", err)
	}
	return nil
}

// Discover lists services near the client. It never returns an error: the
// outcome status tells empty results, missing location, failed fetches and
// superseded requests apart.
func (s *DiscoveryService) Discover(ctx context.Context, session entities.Session, locator providers.DeviceLocator, query entities.DiscoveryQuery) entities.DiscoveryOutcome[entities.DiscoveryResult] {
	ctx, span := observability.StartSpan(ctx, "DiscoveryService.Discover")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("discovery.language", session.Language),
		attribute.String("discovery.category", query.CategoryID),
	)

	ctx, generation, done := s.tracker.Begin(ctx, trackerKey(discoveryKindServices, session.ClientID))
	defer done()

	outcome := entities.DiscoveryOutcome[entities.DiscoveryResult]{Generation: generation}

	near := s.rankNearby(ctx, session, locator)
	outcome.Status, outcome.Location, outcome.Failure = near.status, near.location, near.failure
	if near.status != entities.DiscoveryStatusOK {
		return finish(ctx, s, discoveryKindServices, outcome)
	}
	ranked := near.ranked

	res := s.aggregator.Aggregate(ctx, ranked, session.Language, query)
	outcome.Status, outcome.Items = statusOf(ctx, res, "service fetch failed")
	return finish(ctx, s, discoveryKindServices, outcome)
}

// NearbyInstitutions lists institutions near the client with their sector
// name resolved in the session language.
func (s *DiscoveryService) NearbyInstitutions(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.RankedInstitution] {
	ctx, span := observability.StartSpan(ctx, "DiscoveryService.NearbyInstitutions")
	defer span.End()

	ctx, generation, done := s.tracker.Begin(ctx, trackerKey(discoveryKindInstitutions, session.ClientID))
	defer done()

	outcome := entities.DiscoveryOutcome[entities.RankedInstitution]{Generation: generation}

	near := s.rankNearby(ctx, session, locator)
	outcome.Status, outcome.Location, outcome.Failure = near.status, near.location, near.failure
	if near.status != entities.DiscoveryStatusOK {
		return finish(ctx, s, discoveryKindInstitutions, outcome)
	}
	ranked := near.ranked

	s.attachSectorNames(ctx, ranked, session.Language)
	outcome.Status, outcome.Items = statusOf(ctx, result.OK(ranked), "")
	return finish(ctx, s, discoveryKindInstitutions, outcome)
}

// Categories lists the categories of the sectors that nearby institutions
// belong to, names resolved in the session language.
func (s *DiscoveryService) Categories(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.CategoryView] {
	ctx, span := observability.StartSpan(ctx, "DiscoveryService.Categories")
	defer span.End()

	ctx, generation, done := s.tracker.Begin(ctx, trackerKey(discoveryKindCategories, session.ClientID))
	defer done()

	outcome := entities.DiscoveryOutcome[entities.CategoryView]{Generation: generation}

	near := s.rankNearby(ctx, session, locator)
	outcome.Status, outcome.Location, outcome.Failure = near.status, near.location, near.failure
	if near.status != entities.DiscoveryStatusOK {
		return finish(ctx, s, discoveryKindCategories, outcome)
	}
	ranked := near.ranked

	sectorIDs := sectorIDsOf(ranked)
	if len(sectorIDs) == 0 {
		outcome.Status, outcome.Items = entities.DiscoveryStatusEmpty, []entities.CategoryView{}
		return finish(ctx, s, discoveryKindCategories, outcome)
	}

	categories, err := s.categories.ListBySectors(ctx, sectorIDs)
	views := make([]entities.CategoryView, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		views = append(views, toCategoryView(c, session.Language))
	}

	outcome.Status, outcome.Items = statusOf(ctx, result.From(views, err), "category fetch failed")
	return finish(ctx, s, discoveryKindCategories, outcome)
}

// nearby is the shared first half of every discovery request
type nearby struct {
	ranked   []entities.RankedInstitution
	location *entities.Coordinate
	status   entities.DiscoveryStatus
	failure  string
}

// rankNearby resolves the location and ranks institutions around it. Any
// status other than ok ends the request.
func (s *DiscoveryService) rankNearby(ctx context.Context, session entities.Session, locator providers.DeviceLocator) nearby {
	loc := s.resolver.Resolve(ctx, session, locator)
	if IsSuperseded(ctx) {
		return nearby{status: entities.DiscoveryStatusSuperseded}
	}
	if !loc.Available() {
		return nearby{status: entities.DiscoveryStatusLocationUnavailable, failure: string(loc.Failure)}
	}

	status, ranked := statusOf(ctx, s.ranker.Rank(ctx, loc.Coordinate), "institution fetch failed")
	return nearby{ranked: ranked, location: loc.Coordinate, status: status}
}

func (s *DiscoveryService) attachSectorNames(ctx context.Context, ranked []entities.RankedInstitution, lang string) {
	sectorIDs := sectorIDsOf(ranked)
	if len(sectorIDs) == 0 {
		return
	}

	translations, err := s.institutes.SectorNames(ctx, sectorIDs)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to load sector names")
		return
	}

	bySector := make(map[string][]entities.Translation)
	for _, t := range translations {
		bySector[t.SectorID] = append(bySector[t.SectorID], entities.Translation{Language: t.Language, Name: t.Name})
	}
	for i := range ranked {
		if ranked[i].SectorID == nil {
			continue
		}
		if t, ok := entities.ResolveTranslation(bySector[*ranked[i].SectorID], lang); ok {
			ranked[i].SectorName = t.Name
		}
	}
}

// statusOf maps a collaborator result to a discovery status, checking for
// supersession first. Failures are logged with msg.
func statusOf[T any](ctx context.Context, res result.Result[T], msg string) (entities.DiscoveryStatus, []T) {
	switch {
	case IsSuperseded(ctx):
		return entities.DiscoveryStatusSuperseded, nil
	case res.Failed():
		observability.LoggerFromContext(ctx).Error().Err(res.Err).Msg(msg)
		return entities.DiscoveryStatusFetchFailed, []T{}
	case res.Empty():
		return entities.DiscoveryStatusEmpty, []T{}
	default:
		return entities.DiscoveryStatusOK, res.Items
	}
}

// finish normalises the outcome and records it. Superseded outcomes carry no items.
func finish[T any](ctx context.Context, s *DiscoveryService, kind string, outcome entities.DiscoveryOutcome[T]) entities.DiscoveryOutcome[T] {
	if IsSuperseded(ctx) {
		outcome.Status = entities.DiscoveryStatusSuperseded
	}
	if outcome.Status == entities.DiscoveryStatusSuperseded || outcome.Items == nil {
		outcome.Items = []T{}
	}
	if s.metrics != nil {
		observability.RecordDiscovery(ctx, s.metrics, kind, string(outcome.Status), len(outcome.Items))
	}
	observability.LoggerFromContext(ctx).Debug().
		Str("kind", kind).
		Str("status", string(outcome.Status)).
		Int("items", len(outcome.Items)).
		Uint64("generation", outcome.Generation).
		Msg("discovery finished")
	return outcome
}

func sectorIDsOf(ranked []entities.RankedInstitution) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range ranked {
		if r.SectorID == nil || *r.SectorID == "" {
			continue
		}
		if _, ok := seen[*r.SectorID]; ok {
			continue
		}
		seen[*r.SectorID] = struct{}{}
		ids = append(ids, *r.SectorID)
	}
	sort.Strings(ids)
	return ids
}

func trackerKey(kind, clientID string) string {
	return kind + ":" + clientID
}
