package models

import (
	"fmt"
	"strings"
	"time"
)

// AssessmentType identifies one of the supported questionnaires.
type AssessmentType string

const (
	PHQ9  AssessmentType = "phq9"
	WHO5  AssessmentType = "who5"
	SCL90 AssessmentType = "scl90"
)

// AssessmentTypes lists every supported questionnaire in display order.
var AssessmentTypes = []AssessmentType{PHQ9, WHO5, SCL90}

// ParseAssessmentType accepts the canonical key ("phq9") or the display name ("PHQ-9").
func ParseAssessmentType(s string) (AssessmentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")
	for _, t := range AssessmentTypes {
		if string(t) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown assessment type %q", s)
}

// DisplayName returns the conventional spelling, e.g. "PHQ-9".
func (t AssessmentType) DisplayName() string {
	switch t {
	case PHQ9:
		return "PHQ-9"
	case WHO5:
		return "WHO-5"
	case SCL90:
		return "SCL-90"
	}
	return string(t)
}

// Question is one catalog item with an inclusive integer answer range.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	MinValue int      `json:"min_value"`
	MaxValue int      `json:"max_value"`
}

// Response is a single answered question within a session.
type Response struct {
	QuestionID  string `json:"question_id"`
	AnswerValue int    `json:"answer_value"`
}

// AssessmentResult is derived from a complete set of responses.
type AssessmentResult struct {
	Score          int    `json:"score"`
	SeverityBand   string `json:"severity_band"`
	Interpretation string `json:"interpretation"`
	SafetyFlag     bool   `json:"safety_flag,omitempty"`
}

// AssessmentSession is one run through a questionnaire.
// Result is only set once every question has a valid response.
type AssessmentSession struct {
	ID          string            `json:"id"`
	Type        AssessmentType    `json:"type"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Responses   []Response        `json:"responses"`
	Result      *AssessmentResult `json:"result,omitempty"`
}

// MoodEntry is a single user check-in. MoodScore is 1..5.
type MoodEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	MoodScore int       `json:"mood_score"`
	Note      string    `json:"note"`
}

const (
	MinMoodScore = 1
	MaxMoodScore = 5
)

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// SentimentResult carries a polarity in [-1, 1] and the dominant emotion label.
type SentimentResult struct {
	Polarity   float64 `json:"polarity"`
	TopEmotion string  `json:"top_emotion"`
}

type ChatMessage struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Role      ChatRole         `json:"role"`
	Content   string           `json:"content"`
	Sentiment *SentimentResult `json:"sentiment,omitempty"`
}

// DailyMoodPoint is recomputed on every aggregation; it is never stored.
type DailyMoodPoint struct {
	Day     time.Time `json:"day"`
	AvgMood float64   `json:"avg_mood"`
	Count   int       `json:"count"`
}

type WeeklyInsights struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	RecordedDays int              `json:"recorded_days"`
	AverageMood  float64          `json:"average_mood"`
	BestDay      *DailyMoodPoint  `json:"best_day,omitempty"`
	WorstDay     *DailyMoodPoint  `json:"worst_day,omitempty"`
	Points       []DailyMoodPoint `json:"points"`
}

// Recommendation order in a list reflects rule-check order, not importance.
type Recommendation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
	Action    string `json:"action"`
}

// User is an account owning mood, chat and assessment records.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"pass_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
