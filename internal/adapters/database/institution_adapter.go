package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// InstitutionAdapter reads institution accounts from the users table
type InstitutionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.InstitutionRepository = (*InstitutionAdapter)(nil)

// NewInstitutionAdapter creates a new institution adapter
func NewInstitutionAdapter(client *postgres.Client) *InstitutionAdapter {
	return &InstitutionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var institutionColumns = []interface{}{
	"id", "name", "location", "sector_id", "whatsapp_number", "logo_url", "plan_id",
}

// List retrieves every institution, located or not
func (a *InstitutionAdapter) List(ctx context.Context) ([]*entities.Institution, error) {
	ds := a.db.From("users").
		Select(institutionColumns...).
		Where(goqu.Ex{"role": entities.InstitutionRole}).
		Order(goqu.I("name").Asc())

	return a.queryInstitutions(ctx, ds, "list institutions")
}

// GetByIDs retrieves the institutions among ids. Unknown ids are skipped.
func (a *InstitutionAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	if len(ids) == 0 {
		return []*entities.Institution{}, nil
	}

	ds := a.db.From("users").
		Select(institutionColumns...).
		Where(goqu.Ex{"id": ids, "role": entities.InstitutionRole})

	return a.queryInstitutions(ctx, ds, "get institutions")
}

func (a *InstitutionAdapter) queryInstitutions(ctx context.Context, ds *goqu.SelectDataset, op string) ([]*entities.Institution, error) {
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query: "+op, err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to "+op, err)
	}
	defer rows.Close()

	institutions := []*entities.Institution{}
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan institution", err)
		}
		institutions = append(institutions, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate institutions", err)
	}

	return institutions, nil
}

// GetByID retrieves an institution by ID
func (a *InstitutionAdapter) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	query, _, err := a.db.From("users").
		Select(institutionColumns...).
		Where(goqu.Ex{"id": id, "role": entities.InstitutionRole}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build institution query", err)
	}

	inst, err := scanInstitution(a.client.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("institution with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get institution", err)
	}
	return inst, nil
}

// UpdateLocation replaces the free-text location of an institution
func (a *InstitutionAdapter) UpdateLocation(ctx context.Context, id, rawLocation string) error {
	query, _, err := a.db.Update("users").
		Set(goqu.Record{"location": rawLocation}).
		Where(goqu.Ex{"id": id, "role": entities.InstitutionRole}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build location update", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to update institution location", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("institution with id %s not found", id))
	}
	return nil
}

// SectorNames retrieves the sector translations for sectorIDs
func (a *InstitutionAdapter) SectorNames(ctx context.Context, sectorIDs []string) ([]entities.SectorTranslation, error) {
	if len(sectorIDs) == 0 {
		return []entities.SectorTranslation{}, nil
	}

	query, _, err := a.db.From("sector_translations").
		Select("sector_id", "language", "name").
		Where(goqu.Ex{"sector_id": sectorIDs}).
		Order(goqu.I("sector_id").Asc(), goqu.I("language").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sector names query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sector names", err)
	}
	defer rows.Close()

	names := []entities.SectorTranslation{}
	for rows.Next() {
		var st entities.SectorTranslation
		if err := rows.Scan(&st.SectorID, &st.Language, &st.Name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan sector name", err)
		}
		names = append(names, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sector names", err)
	}
	return names, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstitution(row rowScanner) (*entities.Institution, error) {
	var (
		inst                       entities.Institution
		location, sectorID, planID sql.NullString
		whatsappNumber, logoURL    sql.NullString
	)
	if err := row.Scan(&inst.ID, &inst.Name, &location, &sectorID, &whatsappNumber, &logoURL, &planID); err != nil {
		return nil, err
	}
	inst.RawLocation = nullableString(location)
	inst.SectorID = nullableString(sectorID)
	inst.PlanID = nullableString(planID)
	inst.WhatsAppNumber = whatsappNumber.String
	inst.LogoURL = logoURL.String
	return &inst, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
