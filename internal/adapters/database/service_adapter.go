package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.ServiceRepository = (*ServiceAdapter)(nil)

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) *ServiceAdapter {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var serviceColumns = []interface{}{
	goqu.I("s.id"), goqu.I("s.user_id"), goqu.I("s.category_id"),
	goqu.I("s.price"), goqu.I("s.image_url"), goqu.I("s.created_at"),
}

// ListByInstitutions retrieves services of the given institutions, newest first
func (a *ServiceAdapter) ListByInstitutions(ctx context.Context, institutionIDs []string) ([]*entities.Service, error) {
	if len(institutionIDs) == 0 {
		return []*entities.Service{}, nil
	}

	ds := a.db.From(goqu.T("services").As("s")).
		Select(serviceColumns...).
		Where(goqu.I("s.user_id").In(institutionIDs)).
		Order(goqu.I("s.created_at").Desc())

	return a.queryServices(ctx, ds, "list services")
}

// GetByID retrieves a service with its translations
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	ds := a.db.From(goqu.T("services").As("s")).
		Select(serviceColumns...).
		Where(goqu.I("s.id").Eq(id))

	services, err := a.queryServices(ctx, ds, "get service")
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	return services[0], nil
}

// SearchText matches name or description in one language, newest first
func (a *ServiceAdapter) SearchText(ctx context.Context, params repositories.ServiceSearchParams) ([]*entities.Service, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(params.Query)) + "%"

	ds := a.db.From(goqu.T("services").As("s")).
		Join(goqu.T("service_translations").As("st"), goqu.On(goqu.I("st.service_id").Eq(goqu.I("s.id")))).
		Select(serviceColumns...).
		Where(
			goqu.I("st.language").Eq(params.Language),
			goqu.Or(
				goqu.I("st.name").ILike(pattern),
				goqu.I("st.description").ILike(pattern),
			),
		).
		Order(goqu.I("s.created_at").Desc())

	if params.CategoryID != "" && params.CategoryID != entities.AllCategories {
		ds = ds.Where(goqu.I("s.category_id").Eq(params.CategoryID))
	}
	if params.Limit > 0 {
		ds = ds.Limit(uint(params.Limit))
	}
	if params.Offset > 0 {
		ds = ds.Offset(uint(params.Offset))
	}

	return a.queryServices(ctx, ds, "search services")
}

// ListAll pages through every service in creation order
func (a *ServiceAdapter) ListAll(ctx context.Context, limit, offset int) ([]*entities.Service, error) {
	ds := a.db.From(goqu.T("services").As("s")).
		Select(serviceColumns...).
		Order(goqu.I("s.created_at").Asc(), goqu.I("s.id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return a.queryServices(ctx, ds, "page services")
}

// Create inserts the service row and its translations in one transaction
func (a *ServiceAdapter) Create(ctx context.Context, service *entities.Service) error {
	if service == nil {
		return apperrors.NewInternalError("service is nil", fmt.Errorf("service is nil"))
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	serviceQuery, _, err := a.db.Insert("services").Rows(goqu.Record{
		"id":          service.ID,
		"user_id":     service.InstitutionID,
		"category_id": nullString(service.CategoryID),
		"price":       service.Price,
		"image_url":   sql.NullString{String: service.ImageURL, Valid: service.ImageURL != ""},
		"created_at":  service.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build service insert", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, serviceQuery); err != nil {
		return apperrors.NewInternalError("failed to create service", err)
	}

	if err := a.insertTranslations(ctx, tx, service); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit service", err)
	}
	return nil
}

// Update rewrites the service row and, when translations are given, deletes
// and re-inserts them, all in one transaction
func (a *ServiceAdapter) Update(ctx context.Context, service *entities.Service) error {
	if service == nil {
		return apperrors.NewInternalError("service is nil", fmt.Errorf("service is nil"))
	}

	updateQuery, _, err := a.db.Update("services").
		Set(goqu.Record{
			"category_id": nullString(service.CategoryID),
			"price":       service.Price,
			"image_url":   sql.NullString{String: service.ImageURL, Valid: service.ImageURL != ""},
		}).
		Where(goqu.C("id").Eq(service.ID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build service update", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, updateQuery)
	if err != nil {
		return apperrors.NewInternalError("failed to update service", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", service.ID))
	}

	if len(service.Translations) > 0 {
		deleteQuery, _, err := a.db.Delete("service_translations").
			Where(goqu.C("service_id").Eq(service.ID)).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build translations delete", err)
		}
		if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
			return apperrors.NewInternalError("failed to delete service translations", err)
		}
		if err := a.insertTranslations(ctx, tx, service); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit service", err)
	}
	return nil
}

func (a *ServiceAdapter) insertTranslations(ctx context.Context, tx *sql.Tx, service *entities.Service) error {
	if len(service.Translations) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(service.Translations))
	for _, tr := range service.Translations {
		rows = append(rows, goqu.Record{
			"service_id":  service.ID,
			"language":    tr.Language,
			"name":        tr.Name,
			"description": tr.Description,
		})
	}
	trQuery, _, err := a.db.Insert("service_translations").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build translations insert", err)
	}
	if _, err := tx.ExecContext(ctx, trQuery); err != nil {
		return apperrors.NewInternalError("failed to create service translations", err)
	}
	return nil
}

func (a *ServiceAdapter) queryServices(ctx context.Context, ds *goqu.SelectDataset, op string) ([]*entities.Service, error) {
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query: "+op, err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to "+op, err)
	}
	defer rows.Close()

	services := []*entities.Service{}
	ids := []string{}
	for rows.Next() {
		var (
			svc        entities.Service
			categoryID sql.NullString
			imageURL   sql.NullString
		)
		if err := rows.Scan(&svc.ID, &svc.InstitutionID, &categoryID, &svc.Price, &imageURL, &svc.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan service", err)
		}
		svc.CategoryID = nullableString(categoryID)
		svc.ImageURL = imageURL.String
		svc.Translations = []entities.Translation{}
		services = append(services, &svc)
		ids = append(ids, svc.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate services", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return services, nil
	}

	translations, err := loadTranslations(ctx, a.client, a.db, "service_translations", "service_id", ids)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		if trs, ok := translations[svc.ID]; ok {
			svc.Translations = trs
		}
	}
	return services, nil
}

// loadTranslations returns translations keyed by owner id in insertion order
func loadTranslations(ctx context.Context, client *postgres.Client, db *goqu.Database, table, ownerColumn string, ownerIDs []string) (map[string][]entities.Translation, error) {
	query, _, err := db.From(table).
		Select(ownerColumn, "language", "name", "description").
		Where(goqu.C(ownerColumn).In(ownerIDs)).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build translations query", err)
	}

	rows, err := client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list "+table, err)
	}
	defer rows.Close()

	out := make(map[string][]entities.Translation)
	for rows.Next() {
		var (
			ownerID     string
			tr          entities.Translation
			name        sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&ownerID, &tr.Language, &name, &description); err != nil {
			return nil, apperrors.NewInternalError("failed to scan translation", err)
		}
		tr.Name = name.String
		tr.Description = description.String
		out[ownerID] = append(out[ownerID], tr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate translations", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
