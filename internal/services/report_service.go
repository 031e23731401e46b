package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/models"
)

type ReportStore interface {
	ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error)
	ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error)
	ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error)
}

type ReportService struct {
	store  ReportStore
	now    func() time.Time
	encode payloadEncoder
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Generate fetches the user's records and synthesizes a report. Moods and chat are
// required sources; assessments are optional and degrade to an empty list.
func (s *ReportService) Generate(ctx context.Context, userID string) (*Report, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	log := logger.L().WithFields(logrus.Fields{"component": "report", "user": userID})

	moods, err := s.store.ListMoods(ctx, userID)
	if err != nil {
		log.WithError(err).Error("fetch moods failed")
		return nil, ErrReportUnavailable
	}
	chat, err := s.store.ListChatMessages(ctx, userID)
	if err != nil {
		log.WithError(err).Error("fetch chat failed")
		return nil, ErrReportUnavailable
	}
	assessments, err := s.store.ListAssessments(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("fetch assessments failed, continuing without them")
		assessments = nil
	}

	in := ReportInput{
		Moods:            moods,
		ChatMessageCount: len(chat),
		Assessments:      assessments,
		GeneratedAt:      s.now(),
	}
	var rep Report
	if s.encode != nil {
		rep = buildReport(in, s.encode)
	} else {
		rep = BuildReport(in)
	}
	if rep.PayloadErr != nil {
		log.WithError(rep.PayloadErr).Warn("report payload serialization failed")
	}
	return &rep, nil
}
