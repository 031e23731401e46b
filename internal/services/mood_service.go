package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Nuvio/internal/models"
)

type MoodStore interface {
	AddMood(ctx context.Context, userID string, m models.MoodEntry) error
	DeleteMood(ctx context.Context, userID, id string) (bool, error)
	ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error)
}

type MoodService struct {
	store       MoodStore
	now         func() time.Time
	idGenerator func() string
}

func NewMoodService(store MoodStore) *MoodService {
	return &MoodService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// ValidateMoodScore rejects scores outside 1..5.
func ValidateMoodScore(score int) error {
	if score < models.MinMoodScore || score > models.MaxMoodScore {
		return NewInvalidError(fmt.Sprintf("mood must be between %d and %d", models.MinMoodScore, models.MaxMoodScore))
	}
	return nil
}

// Log records a new check-in.
func (s *MoodService) Log(ctx context.Context, userID string, score int, note string) (*models.MoodEntry, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if err := ValidateMoodScore(score); err != nil {
		return nil, err
	}
	entry := models.MoodEntry{
		ID:        s.idGenerator(),
		Timestamp: s.now(),
		MoodScore: score,
		Note:      strings.TrimSpace(note),
	}
	if err := s.store.AddMood(ctx, userID, entry); err != nil {
		return nil, fmt.Errorf("save mood: %w", err)
	}
	return &entry, nil
}

func (s *MoodService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return NewUnauthorizedError("unauthorized")
	}
	if strings.TrimSpace(id) == "" {
		return NewInvalidError("mood id required")
	}
	ok, err := s.store.DeleteMood(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete mood: %w", err)
	}
	if !ok {
		return NewNotFoundError("mood not found")
	}
	return nil
}

// History returns every entry, oldest first.
func (s *MoodService) History(ctx context.Context, userID string) ([]models.MoodEntry, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	moods, err := s.store.ListMoods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	sort.SliceStable(moods, func(i, j int) bool { return moods[i].Timestamp.Before(moods[j].Timestamp) })
	return moods, nil
}
