package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

type ExportStore interface {
	ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error)
	ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error)
}

// Export kinds accepted by ExportCSV.
const (
	ExportMoods       = "moods"
	ExportAssessments = "assessments"
)

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ExportService) ExportCSV(ctx context.Context, userID, kind string) (*ExportResult, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	var (
		data []byte
		err  error
	)
	switch kind {
	case ExportMoods:
		moods, lerr := s.store.ListMoods(ctx, userID)
		if lerr != nil {
			return nil, fmt.Errorf("list moods: %w", lerr)
		}
		data, err = ExportMoodsCSV(moods)
	case ExportAssessments:
		sessions, lerr := s.store.ListAssessments(ctx, userID)
		if lerr != nil {
			return nil, fmt.Errorf("list assessments: %w", lerr)
		}
		data, err = ExportAssessmentsCSV(sessions)
	default:
		return nil, NewInvalidError("unsupported export")
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s-%s.csv", kind, s.now().Format("20060102")),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}
