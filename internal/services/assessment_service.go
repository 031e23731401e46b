package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Nuvio/internal/models"
)

type AssessmentStore interface {
	AddAssessment(ctx context.Context, userID string, s models.AssessmentSession) error
	ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error)
}

type AssessmentService struct {
	store       AssessmentStore
	now         func() time.Time
	idGenerator func() string
}

func NewAssessmentService(store AssessmentStore) *AssessmentService {
	return &AssessmentService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

type SubmitAssessmentRequest struct {
	Type      models.AssessmentType
	Answers   map[string]int
	StartedAt time.Time
}

// Submit orders answers by the catalog, validates, scores and persists a completed session.
// Nothing is stored when validation fails.
func (s *AssessmentService) Submit(ctx context.Context, userID string, req SubmitAssessmentRequest) (*models.AssessmentSession, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	questions, err := Questions(req.Type)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(questions))
	responses := make([]models.Response, 0, len(questions))
	for _, q := range questions {
		known[q.ID] = true
		v, ok := req.Answers[q.ID]
		if !ok {
			return nil, NewInvalidError("please answer all questions")
		}
		responses = append(responses, models.Response{QuestionID: q.ID, AnswerValue: v})
	}
	for id := range req.Answers {
		if !known[id] {
			return nil, NewInvalidError(fmt.Sprintf("unknown question %q", id))
		}
	}

	now := s.now()
	started := req.StartedAt
	if started.IsZero() || started.After(now) {
		started = now
	}
	session := models.AssessmentSession{
		ID:        s.idGenerator(),
		Type:      req.Type,
		StartedAt: started,
		Responses: responses,
	}
	completed, err := CompleteSession(session, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddAssessment(ctx, userID, completed); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	return &completed, nil
}

// List returns sessions ordered by start time.
func (s *AssessmentService) List(ctx context.Context, userID string) ([]models.AssessmentSession, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	sessions, err := s.store.ListAssessments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].StartedAt.Before(sessions[j].StartedAt) })
	return sessions, nil
}

// Consistency reports Cronbach's alpha over the user's completed sessions of one type.
func (s *AssessmentService) Consistency(ctx context.Context, userID string, t models.AssessmentType) (float64, int, error) {
	if _, err := lookup(t); err != nil {
		return 0, 0, err
	}
	sessions, err := s.List(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	alpha, n := ItemConsistency(t, sessions)
	return alpha, n, nil
}
