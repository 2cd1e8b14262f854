package repositories

import (
	"context"
	"time"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// InteractionRepository records contact attempts
type InteractionRepository interface {
	Create(ctx context.Context, interaction *entities.Interaction) error
}

// StatsSubject names a table counted on the dashboard
type StatsSubject string

const (
	StatsSubjectInteractions StatsSubject = "interactions"
	StatsSubjectServices     StatsSubject = "services"
	StatsSubjectCategories   StatsSubject = "categories"
)

// StatsRepository counts rows created by an institution in a time window
type StatsRepository interface {
	// CountCreated counts rows with from <= created_at < to
	CountCreated(ctx context.Context, subject StatsSubject, institutionID string, from, to time.Time) (int, error)

	// CountByMonth groups the same rows by calendar month of created_at
	CountByMonth(ctx context.Context, subject StatsSubject, institutionID string, from, to time.Time) (map[time.Month]int, error)
}
