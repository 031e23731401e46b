package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/models"
)

type InsightsStore interface {
	ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error)
	ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error)
}

type InsightsService struct {
	store      InsightsStore
	windowDays int
	now        func() time.Time
	loc        *time.Location
}

// WeeklyView is everything the weekly insights screen shows.
type WeeklyView struct {
	Insights        models.WeeklyInsights   `json:"insights"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Direction       string                  `json:"direction"`
	Tip             string                  `json:"tip,omitempty"`
}

// NewInsightsService builds a service aggregating over windowDays days in loc.
// A nil loc means UTC.
func NewInsightsService(store InsightsStore, windowDays int, loc *time.Location) *InsightsService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InsightsService{
		store:      store,
		windowDays: windowDays,
		now:        time.Now,
		loc:        loc,
	}
}

// Weekly aggregates the trailing window. days <= 0 uses the configured default.
func (s *InsightsService) Weekly(ctx context.Context, userID string, days int) (*WeeklyView, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if days <= 0 {
		days = s.windowDays
	}
	if days > 366 {
		return nil, NewInvalidError("window too large")
	}
	moods, err := s.store.ListMoods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	insights := Aggregate(moods, s.now().In(s.loc), days)
	return &WeeklyView{
		Insights:        insights,
		Recommendations: GenerateWeekly(insights),
		Direction:       WeeklyDirection(insights),
		Tip:             DailyTip(insights),
	}, nil
}

// Recommendations runs the assessment-aware generator over the full history. A failing
// assessment fetch degrades to "no assessment".
func (s *InsightsService) Recommendations(ctx context.Context, userID string) ([]models.Recommendation, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	moods, err := s.store.ListMoods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	var latest *models.AssessmentResult
	sessions, err := s.store.ListAssessments(ctx, userID)
	if err != nil {
		logger.L().WithError(err).WithField("user", userID).Warn("assessments unavailable, recommending without them")
	} else {
		latest = LatestResult(sessions)
	}
	return Generate(moods, latest), nil
}
