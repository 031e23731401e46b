package services

import (
	"context"
	"errors"

	"github.com/soaringjerry/Nuvio/internal/models"
)

var errStub = errors.New("stub failure")

// recordStub keeps one user's records in slices and can fail any list call.
type recordStub struct {
	moods       []models.MoodEntry
	chat        []models.ChatMessage
	assessments []models.AssessmentSession

	failMoods       bool
	failChat        bool
	failAssessments bool
	failAddChat     bool
}

func (s *recordStub) AddMood(_ context.Context, _ string, m models.MoodEntry) error {
	s.moods = append(s.moods, m)
	return nil
}

func (s *recordStub) DeleteMood(_ context.Context, _ string, id string) (bool, error) {
	for i, m := range s.moods {
		if m.ID == id {
			s.moods = append(s.moods[:i], s.moods[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *recordStub) ListMoods(context.Context, string) ([]models.MoodEntry, error) {
	if s.failMoods {
		return nil, errStub
	}
	return append([]models.MoodEntry(nil), s.moods...), nil
}

func (s *recordStub) AddChatMessage(_ context.Context, _ string, msg models.ChatMessage) error {
	if s.failAddChat {
		return errStub
	}
	s.chat = append(s.chat, msg)
	return nil
}

func (s *recordStub) ListChatMessages(context.Context, string) ([]models.ChatMessage, error) {
	if s.failChat {
		return nil, errStub
	}
	return append([]models.ChatMessage(nil), s.chat...), nil
}

func (s *recordStub) ClearChat(context.Context, string) error {
	s.chat = nil
	return nil
}

func (s *recordStub) AddAssessment(_ context.Context, _ string, a models.AssessmentSession) error {
	s.assessments = append(s.assessments, a)
	return nil
}

func (s *recordStub) ListAssessments(context.Context, string) ([]models.AssessmentSession, error) {
	if s.failAssessments {
		return nil, errStub
	}
	return append([]models.AssessmentSession(nil), s.assessments...), nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}
