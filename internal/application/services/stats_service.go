package services

import (
	"context"
	"math"
	"time"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
)

// StatsService computes month-over-month dashboard figures
type StatsService struct {
	repo repositories.StatsRepository
	now  func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(repo repositories.StatsRepository) *StatsService {
	return &StatsService{repo: repo, now: time.Now}
}

// Dashboard compares the current calendar month with the previous one
func (s *StatsService) Dashboard(ctx context.Context, institutionID string) (*entities.DashboardStats, error) {
	currentStart, previousStart, nextStart := monthBounds(s.now().UTC())

	stats := &entities.DashboardStats{InstitutionID: institutionID}
	targets := []struct {
		subject repositories.StatsSubject
		out     *entities.MonthlyCount
	}{
		{repositories.StatsSubjectInteractions, &stats.Interactions},
		{repositories.StatsSubjectServices, &stats.Services},
		{repositories.StatsSubjectCategories, &stats.Categories},
	}

	for _, t := range targets {
		current, err := s.repo.CountCreated(ctx, t.subject, institutionID, currentStart, nextStart)
		if err != nil {
			return nil, err
		}
		previous, err := s.repo.CountCreated(ctx, t.subject, institutionID, previousStart, currentStart)
		if err != nil {
			return nil, err
		}
		*t.out = entities.MonthlyCount{
			Current:          current,
			Previous:         previous,
			PercentageChange: PercentageChange(current, previous),
		}
	}
	return stats, nil
}

var monthLabels = map[string][12]string{
	"pt":  {"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
	"en":  {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"fr":  {"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"},
	"umb": {"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
}

// InteractionsByMonth counts the institution's interactions in each month of
// the current year. Month labels follow lang, Portuguese when unknown.
func (s *StatsService) InteractionsByMonth(ctx context.Context, institutionID, lang string) (*entities.MonthlySeries, error) {
	now := s.now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	counts, err := s.repo.CountByMonth(ctx, repositories.StatsSubjectInteractions, institutionID, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}

	labels, ok := monthLabels[lang]
	if !ok {
		lang, labels = "pt", monthLabels["pt"]
	}
	series := &entities.MonthlySeries{
		InstitutionID: institutionID,
		Year:          now.Year(),
		Language:      lang,
		Months:        labels[:],
		Counts:        make([]int, 12),
	}
	for month, n := range counts {
		series.Counts[month-1] = n
	}
	return series, nil
}

// PercentageChange is round((current-previous)/previous*100). With no
// previous activity it is 100 when there is current activity and 0 otherwise.
// Halves round up, so -2.5 becomes -2.
func PercentageChange(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Floor(float64(current-previous)/float64(previous)*100 + 0.5))
}

func monthBounds(now time.Time) (current, previous, next time.Time) {
	current = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return current, current.AddDate(0, -1, 0), current.AddDate(0, 1, 0)
}
