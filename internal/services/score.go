package services

import (
	"fmt"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

func phq9Band(total int) string {
	switch {
	case total <= 4:
		return "Minimal"
	case total <= 9:
		return "Mild"
	case total <= 14:
		return "Moderate"
	case total <= 19:
		return "Moderately Severe"
	default:
		return "Severe"
	}
}

func who5Band(total int) string {
	if total >= 13 {
		return "Good well-being"
	}
	return "Low well-being"
}

func scl90Band(total int) string {
	if total >= 20 {
		return "Elevated distress"
	}
	return "Within normal range"
}

// phq9SafetyItem is the self-harm item; any non-zero answer raises SafetyFlag.
const phq9SafetyItem = 9

// ValidateResponses checks that every question of t has exactly one in-range answer.
// Failures are user-correctable and block scoring.
func ValidateResponses(t models.AssessmentType, responses []models.Response) error {
	questions, err := Questions(t)
	if err != nil {
		return err
	}
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	seen := make(map[string]bool, len(responses))
	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			return NewInvalidError(fmt.Sprintf("unknown question %q", r.QuestionID))
		}
		if seen[r.QuestionID] {
			return NewInvalidError(fmt.Sprintf("duplicate answer for %q", r.QuestionID))
		}
		seen[r.QuestionID] = true
		if r.AnswerValue < q.MinValue || r.AnswerValue > q.MaxValue {
			return NewInvalidError(fmt.Sprintf("answer for %q must be between %d and %d", r.QuestionID, q.MinValue, q.MaxValue))
		}
	}
	for _, q := range questions {
		if !seen[q.ID] {
			return NewInvalidError("please answer all questions")
		}
	}
	return nil
}

// Score sums the answers and classifies the total. It does not re-validate ranges;
// callers run ValidateResponses first.
func Score(t models.AssessmentType, responses []models.Response) (models.AssessmentResult, error) {
	def, err := lookup(t)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	total := 0
	for _, r := range responses {
		total += r.AnswerValue
	}
	band := def.band(total)
	res := models.AssessmentResult{
		Score:          total,
		SeverityBand:   band,
		Interpretation: fmt.Sprintf(def.template, band),
	}
	if t == models.PHQ9 {
		safetyID := QuestionID(models.PHQ9, phq9SafetyItem)
		for _, r := range responses {
			if r.QuestionID == safetyID && r.AnswerValue >= 1 {
				res.SafetyFlag = true
			}
		}
	}
	return res, nil
}

// CompleteSession validates and scores s, returning a completed copy.
// The input session is left untouched.
func CompleteSession(s models.AssessmentSession, now time.Time) (models.AssessmentSession, error) {
	if err := ValidateResponses(s.Type, s.Responses); err != nil {
		return s, err
	}
	res, err := Score(s.Type, s.Responses)
	if err != nil {
		return s, err
	}
	out := s
	out.Responses = append([]models.Response(nil), s.Responses...)
	completed := now
	out.CompletedAt = &completed
	out.Result = &res
	return out, nil
}

// WHO5Percent maps a raw WHO-5 total (0-20) onto the 0-100 percentage scale.
func WHO5Percent(score int) int {
	pct := score * 5
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
