package services

import (
	"errors"
	"testing"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// answersSumming builds a complete response set for t whose values sum to total.
func answersSumming(t *testing.T, at models.AssessmentType, total int) []models.Response {
	t.Helper()
	qs, err := Questions(at)
	if err != nil {
		t.Fatalf("Questions(%s): %v", at, err)
	}
	out := make([]models.Response, 0, len(qs))
	for _, q := range qs {
		v := total
		if v > q.MaxValue {
			v = q.MaxValue
		}
		total -= v
		out = append(out, models.Response{QuestionID: q.ID, AnswerValue: v})
	}
	if total != 0 {
		t.Fatalf("total too large for %s", at)
	}
	return out
}

func TestQuestionsCatalog(t *testing.T) {
	want := map[models.AssessmentType]int{models.PHQ9: 9, models.WHO5: 5, models.SCL90: 90}
	for at, n := range want {
		qs, err := Questions(at)
		if err != nil {
			t.Fatalf("Questions(%s): %v", at, err)
		}
		if len(qs) != n {
			t.Fatalf("%s: want %d questions, got %d", at, n, len(qs))
		}
		ids := map[string]bool{}
		for _, q := range qs {
			if ids[q.ID] {
				t.Fatalf("%s: duplicate id %s", at, q.ID)
			}
			ids[q.ID] = true
			if len(q.Options) != q.MaxValue-q.MinValue+1 {
				t.Fatalf("%s: option count %d does not match range %d..%d", q.ID, len(q.Options), q.MinValue, q.MaxValue)
			}
		}
	}
	if _, err := Questions("gad7"); !errors.Is(err, ErrUnknownAssessmentType) {
		t.Fatalf("expected ErrUnknownAssessmentType, got %v", err)
	}
}

func TestQuestionsReturnsFreshCopies(t *testing.T) {
	qs, _ := Questions(models.PHQ9)
	qs[0].Text = "changed"
	qs[0].Options[0] = "changed"
	again, _ := Questions(models.PHQ9)
	if again[0].Text == "changed" || again[0].Options[0] == "changed" {
		t.Fatalf("catalog mutated through returned slice")
	}
}

func TestScoreBands(t *testing.T) {
	cases := []struct {
		at    models.AssessmentType
		total int
		band  string
	}{
		{models.PHQ9, 4, "Minimal"},
		{models.PHQ9, 5, "Mild"},
		{models.PHQ9, 10, "Moderate"},
		{models.PHQ9, 15, "Moderately Severe"},
		{models.PHQ9, 20, "Severe"},
		{models.WHO5, 13, "Good well-being"},
		{models.WHO5, 12, "Low well-being"},
		{models.SCL90, 19, "Within normal range"},
		{models.SCL90, 20, "Elevated distress"},
	}
	for _, c := range cases {
		res, err := Score(c.at, answersSumming(t, c.at, c.total))
		if err != nil {
			t.Fatalf("Score(%s,%d): %v", c.at, c.total, err)
		}
		if res.Score != c.total || res.SeverityBand != c.band {
			t.Fatalf("Score(%s,%d) = %d/%q, want %q", c.at, c.total, res.Score, res.SeverityBand, c.band)
		}
		if res.Interpretation == "" {
			t.Fatalf("empty interpretation for %s", c.at)
		}
	}
}

func TestScoreIsPure(t *testing.T) {
	rs := answersSumming(t, models.WHO5, 13)
	a, _ := Score(models.WHO5, rs)
	b, _ := Score(models.WHO5, rs)
	if a != b {
		t.Fatalf("repeated scoring differs: %+v vs %+v", a, b)
	}
}

func TestPHQ9SafetyFlag(t *testing.T) {
	rs := answersSumming(t, models.PHQ9, 0)
	res, _ := Score(models.PHQ9, rs)
	if res.SafetyFlag {
		t.Fatalf("unexpected safety flag on all-zero answers")
	}
	rs[8].AnswerValue = 1
	res, _ = Score(models.PHQ9, rs)
	if !res.SafetyFlag {
		t.Fatalf("expected safety flag when item 9 is answered")
	}
}

func TestValidateResponses(t *testing.T) {
	full := answersSumming(t, models.PHQ9, 6)
	if err := ValidateResponses(models.PHQ9, full); err != nil {
		t.Fatalf("complete set rejected: %v", err)
	}

	missing := full[:8]
	err := ValidateResponses(models.PHQ9, missing)
	if se, ok := AsServiceError(err); !ok || se.Message != "please answer all questions" {
		t.Fatalf("expected missing-answer error, got %v", err)
	}

	outOfRange := append([]models.Response(nil), full...)
	outOfRange[0].AnswerValue = 4
	if err := ValidateResponses(models.PHQ9, outOfRange); err == nil {
		t.Fatalf("expected out-of-range error")
	}

	dup := append(append([]models.Response(nil), full...), full[0])
	if err := ValidateResponses(models.PHQ9, dup); err == nil {
		t.Fatalf("expected duplicate error")
	}

	unknown := append(append([]models.Response(nil), full[:8]...), models.Response{QuestionID: "who5_q1", AnswerValue: 0})
	if err := ValidateResponses(models.PHQ9, unknown); err == nil {
		t.Fatalf("expected unknown question error")
	}
}

func TestCompleteSession(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := models.AssessmentSession{ID: "s1", Type: models.WHO5, StartedAt: now.Add(-time.Minute), Responses: answersSumming(t, models.WHO5, 10)}
	out, err := CompleteSession(in, now)
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if out.Result == nil || out.CompletedAt == nil || !out.CompletedAt.Equal(now) {
		t.Fatalf("session not completed: %+v", out)
	}
	if in.Result != nil || in.CompletedAt != nil {
		t.Fatalf("input session mutated")
	}

	in.Responses = in.Responses[:2]
	out, err = CompleteSession(in, now)
	if err == nil || out.Result != nil {
		t.Fatalf("incomplete session must not be scored")
	}
}

func TestWHO5Percent(t *testing.T) {
	cases := map[int]int{0: 0, 13: 65, 20: 100, 25: 100, -1: 0}
	for in, want := range cases {
		if got := WHO5Percent(in); got != want {
			t.Fatalf("WHO5Percent(%d)=%d, want %d", in, got, want)
		}
	}
}
