// Package resolvers answers the GraphQL read side over the discovery, search,
// browse and stats services.
package resolvers

import (
	"context"
	"strconv"

	"github.com/lingatchoss/marketplace/internal/adapters/providers/geolocation"
	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/graphql/loaders"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// DiscoveryService is the proximity pipeline
type DiscoveryService interface {
	Session(ctx context.Context, clientID, override string) entities.Session
	Discover(ctx context.Context, session entities.Session, locator providers.DeviceLocator, query entities.DiscoveryQuery) entities.DiscoveryOutcome[entities.DiscoveryResult]
	NearbyInstitutions(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.RankedInstitution]
	Categories(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.CategoryView]
}

// SearchService runs the global service search
type SearchService interface {
	Search(ctx context.Context, params repositories.ServiceSearchParams) ([]entities.SearchHit, error)
}

// BrowseService serves the public pages
type BrowseService interface {
	InstitutionDetail(ctx context.Context, institutionID, lang string) (*entities.InstitutionDetail, error)
	ServiceDetail(ctx context.Context, serviceID, lang string) (*entities.ServiceDetail, error)
}

// StatsService serves the dashboard
type StatsService interface {
	Dashboard(ctx context.Context, institutionID string) (*entities.DashboardStats, error)
	InteractionsByMonth(ctx context.Context, institutionID, lang string) (*entities.MonthlySeries, error)
}

// Options holds the presentation settings shared with the REST handlers
type Options struct {
	Geocoder        providers.Geocoder
	Presenter       *services.Presenter
	DefaultLanguage string
	DefaultLimit    int
}

// Resolver is the root resolver
type Resolver struct {
	discovery DiscoveryService
	search    SearchService
	browse    BrowseService
	stats     StatsService
	opts      Options
}

// NewResolver creates a new resolver. A nil presenter uses the default currency label.
func NewResolver(discovery DiscoveryService, search SearchService, browse BrowseService, stats StatsService, opts Options) *Resolver {
	if opts.Presenter == nil {
		opts.Presenter = services.NewPresenter("", "")
	}
	return &Resolver{
		discovery: discovery,
		search:    search,
		browse:    browse,
		stats:     stats,
		opts:      opts,
	}
}

// LocationArgs are the location hints every nearby query accepts
type LocationArgs struct {
	Lat           *float64
	Lng           *float64
	Address       string
	LocationError string
	Lang          string
}

func (a LocationArgs) locator(geocoder providers.Geocoder) providers.DeviceLocator {
	hints := geolocation.LocationHints{
		Address:       a.Address,
		LocationError: a.LocationError,
	}
	if a.Lat != nil {
		hints.Latitude = strconv.FormatFloat(*a.Lat, 'f', -1, 64)
	}
	if a.Lng != nil {
		hints.Longitude = strconv.FormatFloat(*a.Lng, 'f', -1, 64)
	}
	return geolocation.NewRequestLocator(hints, geocoder)
}

func (r *Resolver) session(ctx context.Context, lang string) entities.Session {
	return r.discovery.Session(ctx, middleware.ClientIDFromContext(ctx), lang)
}

// NearbyServices lists services near the caller
func (r *Resolver) NearbyServices(ctx context.Context, loc LocationArgs, query entities.DiscoveryQuery) (*Discovery[DiscoveredService], error) {
	if query.Limit < 0 {
		return nil, apperrors.NewValidationError("limit must not be negative")
	}
	if query.Limit == 0 {
		query.Limit = r.opts.DefaultLimit
	}

	session := r.session(ctx, loc.Lang)
	outcome := r.discovery.Discover(ctx, session, loc.locator(r.opts.Geocoder), query)

	items := make([]DiscoveredService, 0, len(outcome.Items))
	for _, item := range outcome.Items {
		items = append(items, DiscoveredService{
			ServiceID:     item.ServiceID,
			InstitutionID: item.InstitutionID,
			Name:          item.ResolvedName,
			DisplayName:   services.TruncateName(item.ResolvedName),
			Description:   item.ResolvedDescription,
			Price:         item.Price,
			PriceLabel:    r.opts.Presenter.FormatPrice(item.Price),
			ImageURL:      optional(item.ImageURL),
			CategoryID:    item.CategoryID,
			DistanceKm:    item.DistanceKm,
		})
	}
	return discovery(outcome, session, items), nil
}

// NearbyInstitutions lists institutions near the caller, nearest first
func (r *Resolver) NearbyInstitutions(ctx context.Context, loc LocationArgs) *Discovery[NearbyInstitution] {
	session := r.session(ctx, loc.Lang)
	outcome := r.discovery.NearbyInstitutions(ctx, session, loc.locator(r.opts.Geocoder))

	items := make([]NearbyInstitution, 0, len(outcome.Items))
	for _, item := range outcome.Items {
		items = append(items, NearbyInstitution{
			ID:         item.ID,
			Name:       item.Name,
			Phone:      optional(item.WhatsAppNumber),
			SectorName: optional(item.SectorName),
			HasPlan:    item.HasPlan(),
			DistanceKm: item.DistanceKm,
			Location:   item.Coordinate,
		})
	}
	return discovery(outcome, session, items)
}

// NearbyCategories lists the categories of nearby institutions
func (r *Resolver) NearbyCategories(ctx context.Context, loc LocationArgs) *Discovery[Category] {
	session := r.session(ctx, loc.Lang)
	outcome := r.discovery.Categories(ctx, session, loc.locator(r.opts.Geocoder))

	items := make([]Category, 0, len(outcome.Items))
	for _, item := range outcome.Items {
		items = append(items, Category{ID: item.ID, Name: item.ResolvedName, SectorID: optional(item.SectorID)})
	}
	return discovery(outcome, session, items)
}

// SearchServices runs the global search box
func (r *Resolver) SearchServices(ctx context.Context, params repositories.ServiceSearchParams) ([]SearchHit, error) {
	if params.Language == "" {
		params.Language = r.opts.DefaultLanguage
	}
	if params.CategoryID == entities.AllCategories {
		params.CategoryID = ""
	}

	hits, err := r.search.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchHit{
			ServiceID:     h.ServiceID,
			InstitutionID: h.InstitutionID,
			CategoryID:    h.CategoryID,
			Language:      params.Language,
			Name:          h.Name,
			DisplayName:   h.DisplayName,
			Description:   h.Description,
			Price:         h.Price,
			PriceLabel:    h.PriceLabel,
			ImageURL:      optional(h.ImageURL),
		})
	}
	return out, nil
}

// Institution returns the public page of an institution, nil when unknown
func (r *Resolver) Institution(ctx context.Context, id, lang string) (*InstitutionPage, error) {
	detail, err := r.browse.InstitutionDetail(ctx, id, r.language(lang))
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	page := &InstitutionPage{
		ID:         detail.ID,
		Name:       detail.Name,
		Phone:      optional(detail.WhatsAppNumber),
		LogoURL:    optional(detail.LogoURL),
		SectorName: detail.SectorName,
		Services:   make([]ServiceSummary, 0, len(detail.Services)),
	}
	for _, v := range detail.Services {
		page.Services = append(page.Services, r.summary(v))
	}
	return page, nil
}

// Service returns the public page of a service, nil when unknown
func (r *Resolver) Service(ctx context.Context, id, lang string) (*ServicePage, error) {
	detail, err := r.browse.ServiceDetail(ctx, id, r.language(lang))
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ServicePage{
		ServiceSummary:   r.summary(detail.ServiceView),
		InstitutionID:    detail.InstitutionID,
		InstitutionName:  detail.InstitutionName,
		InstitutionPhone: optional(detail.InstitutionPhone),
		SectorName:       detail.SectorName,
	}, nil
}

// Dashboard returns the institution's monthly counters
func (r *Resolver) Dashboard(ctx context.Context, institutionID string) (*DashboardStats, error) {
	stats, err := r.stats.Dashboard(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		InstitutionID: stats.InstitutionID,
		Interactions:  toMonthlyCount(stats.Interactions),
		Services:      toMonthlyCount(stats.Services),
		Categories:    toMonthlyCount(stats.Categories),
	}, nil
}

// InteractionsByMonth returns the interactions of each month of the current year
func (r *Resolver) InteractionsByMonth(ctx context.Context, institutionID, lang string) (*MonthlySeries, error) {
	series, err := r.stats.InteractionsByMonth(ctx, institutionID, r.language(lang))
	if err != nil {
		return nil, err
	}
	return &MonthlySeries{
		InstitutionID: series.InstitutionID,
		Year:          series.Year,
		Language:      series.Language,
		Months:        series.Months,
		Counts:        series.Counts,
	}, nil
}

// institution loads through the request loader. A missing row is a null field.
func institution(ctx context.Context, id string) (*Institution, error) {
	if id == "" {
		return nil, nil
	}
	inst, err := loaders.For(ctx).InstitutionLoader.Load(ctx, id)()
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toInstitution(inst), nil
}

func category(ctx context.Context, id, lang string) (*Category, error) {
	if id == "" {
		return nil, nil
	}
	c, err := loaders.For(ctx).CategoryLoader.Load(ctx, id)()
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	name, _ := services.ResolveText(c.Translations, lang)
	return &Category{ID: c.ID, Name: name, SectorID: c.SectorID}, nil
}

func (r *Resolver) summary(v entities.ServiceView) ServiceSummary {
	return ServiceSummary{
		ID:           v.ID,
		Name:         v.Name,
		Description:  v.Description,
		Price:        v.Price,
		PriceLabel:   r.opts.Presenter.FormatPrice(v.Price),
		ImageURL:     optional(v.ImageURL),
		CategoryID:   v.CategoryID,
		CategoryName: v.CategoryName,
		CreatedAt:    v.CreatedAt,
	}
}

func (r *Resolver) language(lang string) string {
	if lang == "" {
		return r.opts.DefaultLanguage
	}
	return lang
}

func discovery[T, I any](outcome entities.DiscoveryOutcome[I], session entities.Session, items []T) *Discovery[T] {
	return &Discovery[T]{
		Status:     outcome.Status,
		Generation: outcome.Generation,
		Language:   session.Language,
		Location:   outcome.Location,
		Failure:    optional(outcome.Failure),
		Items:      items,
	}
}
