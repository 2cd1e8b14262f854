package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// InteractionAdapter persists contact attempts and answers dashboard counts
type InteractionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var (
	_ repositories.InteractionRepository = (*InteractionAdapter)(nil)
	_ repositories.StatsRepository       = (*InteractionAdapter)(nil)
)

// NewInteractionAdapter creates a new interaction adapter
func NewInteractionAdapter(client *postgres.Client) *InteractionAdapter {
	return &InteractionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts an interaction record
func (a *InteractionAdapter) Create(ctx context.Context, interaction *entities.Interaction) error {
	if interaction == nil {
		return apperrors.NewInternalError("interaction is nil", fmt.Errorf("interaction is nil"))
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	query, _, err := a.db.Insert("interactions").Rows(goqu.Record{
		"id":         interaction.ID,
		"company_id": interaction.CompanyID,
		"service_id": nullString(interaction.ServiceID),
		"channel":    string(interaction.Channel),
		"created_at": interaction.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build interaction insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to create interaction", err)
	}
	return nil
}

// ownerColumn is the column holding the institution id per counted table
var ownerColumn = map[repositories.StatsSubject]string{
	repositories.StatsSubjectInteractions: "company_id",
	repositories.StatsSubjectServices:     "user_id",
	repositories.StatsSubjectCategories:   "user_id",
}

// CountCreated counts rows owned by institutionID with from <= created_at < to
func (a *InteractionAdapter) CountCreated(ctx context.Context, subject repositories.StatsSubject, institutionID string, from, to time.Time) (int, error) {
	column, ok := ownerColumn[subject]
	if !ok {
		return 0, apperrors.NewValidationError(fmt.Sprintf("unknown stats subject %q", subject))
	}

	query, _, err := a.db.From(string(subject)).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C(column).Eq(institutionID),
			goqu.C("created_at").Gte(from),
			goqu.C("created_at").Lt(to),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count sql.NullInt64
	if err := a.client.DB().QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("failed to count %s", subject), err)
	}
	return int(count.Int64), nil
}

// CountByMonth counts rows owned by institutionID with from <= created_at < to,
// grouped by UTC calendar month. Months without rows are absent.
func (a *InteractionAdapter) CountByMonth(ctx context.Context, subject repositories.StatsSubject, institutionID string, from, to time.Time) (map[time.Month]int, error) {
	column, ok := ownerColumn[subject]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown stats subject %q", subject))
	}

	query, _, err := a.db.From(string(subject)).
		Select(
			goqu.L(`EXTRACT(MONTH FROM "created_at" AT TIME ZONE 'UTC')::int`).As("month"),
			goqu.COUNT("*").As("count"),
		).
		Where(
			goqu.C(column).Eq(institutionID),
			goqu.C("created_at").Gte(from),
			goqu.C("created_at").Lt(to),
		).
		GroupBy(goqu.C("month")).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build monthly count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to count %s by month", subject), err)
	}
	defer rows.Close()

	counts := make(map[time.Month]int)
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan monthly count", err)
		}
		if month >= 1 && month <= 12 {
			counts[time.Month(month)] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate monthly counts", err)
	}
	return counts, nil
}
