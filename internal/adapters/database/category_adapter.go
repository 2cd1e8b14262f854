package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// CategoryAdapter implements the CategoryRepository interface
type CategoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CategoryRepository = (*CategoryAdapter)(nil)

// NewCategoryAdapter creates a new category adapter
func NewCategoryAdapter(client *postgres.Client) *CategoryAdapter {
	return &CategoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListBySectors retrieves categories of the given sectors with all translations
func (a *CategoryAdapter) ListBySectors(ctx context.Context, sectorIDs []string) ([]*entities.Category, error) {
	if len(sectorIDs) == 0 {
		return []*entities.Category{}, nil
	}

	ds := a.db.From("categories").
		Select("id", "user_id", "sector_id").
		Where(goqu.C("sector_id").In(sectorIDs)).
		Order(goqu.I("created_at").Asc())

	return a.queryCategories(ctx, ds, "list categories")
}

// ListByInstitution retrieves the categories an institution created, oldest first
func (a *CategoryAdapter) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Category, error) {
	ds := a.db.From("categories").
		Select("id", "user_id", "sector_id").
		Where(goqu.C("user_id").Eq(institutionID)).
		Order(goqu.I("created_at").Asc())

	return a.queryCategories(ctx, ds, "list institution categories")
}

// GetByIDs retrieves the categories among ids. Unknown ids are skipped.
func (a *CategoryAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Category, error) {
	if len(ids) == 0 {
		return []*entities.Category{}, nil
	}

	ds := a.db.From("categories").
		Select("id", "user_id", "sector_id").
		Where(goqu.C("id").In(ids))

	return a.queryCategories(ctx, ds, "get categories")
}

func (a *CategoryAdapter) queryCategories(ctx context.Context, ds *goqu.SelectDataset, op string) ([]*entities.Category, error) {
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query: "+op, err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to "+op, err)
	}
	defer rows.Close()

	categories := []*entities.Category{}
	ids := []string{}
	for rows.Next() {
		var (
			cat      entities.Category
			sectorID sql.NullString
		)
		if err := rows.Scan(&cat.ID, &cat.InstitutionID, &sectorID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		cat.SectorID = nullableString(sectorID)
		cat.Translations = []entities.Translation{}
		categories = append(categories, &cat)
		ids = append(ids, cat.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate categories", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return categories, nil
	}

	translations, err := loadTranslations(ctx, a.client, a.db, "category_translations", "category_id", ids)
	if err != nil {
		return nil, err
	}
	for _, cat := range categories {
		if trs, ok := translations[cat.ID]; ok {
			cat.Translations = trs
		}
	}
	return categories, nil
}

// Create inserts the category and its translations in one transaction
func (a *CategoryAdapter) Create(ctx context.Context, category *entities.Category) error {
	if category == nil {
		return apperrors.NewInternalError("category is nil", fmt.Errorf("category is nil"))
	}

	catQuery, _, err := a.db.Insert("categories").Rows(goqu.Record{
		"id":        category.ID,
		"user_id":   category.InstitutionID,
		"sector_id": nullString(category.SectorID),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build category insert", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, catQuery); err != nil {
		return apperrors.NewInternalError("failed to create category", err)
	}

	if len(category.Translations) > 0 {
		rows := make([]interface{}, 0, len(category.Translations))
		for _, tr := range category.Translations {
			rows = append(rows, goqu.Record{
				"category_id": category.ID,
				"language":    tr.Language,
				"name":        tr.Name,
				"description": sql.NullString{String: tr.Description, Valid: tr.Description != ""},
			})
		}
		trQuery, _, err := a.db.Insert("category_translations").Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build category translations insert", err)
		}
		if _, err := tx.ExecContext(ctx, trQuery); err != nil {
			return apperrors.NewInternalError("failed to create category translations", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit category", err)
	}
	return nil
}
