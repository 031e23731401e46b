package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// ReportPayload is the exportable part of a report.
type ReportPayload struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Moods       []models.MoodEntry         `json:"moods"`
	Assessments []models.AssessmentSession `json:"assessments"`
}

type ReportInput struct {
	Moods            []models.MoodEntry
	ChatMessageCount int
	Assessments      []models.AssessmentSession
	GeneratedAt      time.Time
}

// Report carries both outputs. PayloadErr is set when serialization failed; Text is
// produced regardless.
type Report struct {
	Summary         string                  `json:"summary"`
	Patterns        []string                `json:"patterns"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Payload         ReportPayload           `json:"payload"`
	PayloadJSON     []byte                  `json:"-"`
	PayloadErr      error                   `json:"-"`
	Text            string                  `json:"text"`
}

type payloadEncoder func(v any) ([]byte, error)

// BuildReport synthesizes a report from already-fetched records.
func BuildReport(in ReportInput) Report {
	return buildReport(in, json.Marshal)
}

func buildReport(in ReportInput, encode payloadEncoder) Report {
	moods := append([]models.MoodEntry{}, in.Moods...)
	assessments := append([]models.AssessmentSession{}, in.Assessments...)

	summary := WeeklySummary(moods, assessments, in.GeneratedAt)
	patterns := DetectPatterns(moods)
	recs := Generate(moods, LatestResult(assessments))

	rep := Report{
		Summary:         summary,
		Patterns:        patterns,
		Recommendations: recs,
		Payload: ReportPayload{
			GeneratedAt: in.GeneratedAt,
			Moods:       moods,
			Assessments: assessments,
		},
	}
	rep.PayloadJSON, rep.PayloadErr = encode(rep.Payload)
	if rep.PayloadErr != nil {
		rep.PayloadJSON = nil
	}
	rep.Text = renderReportText(summary, patterns, recs, len(moods), in.ChatMessageCount)
	return rep
}

func renderReportText(summary string, patterns []string, recs []models.Recommendation, moodCount, chatCount int) string {
	var b strings.Builder
	b.WriteString("WEEKLY REPORT\n\n")

	b.WriteString("Summary\n")
	b.WriteString(summary)
	b.WriteString("\n\n")

	b.WriteString("Patterns\n")
	if len(patterns) == 0 {
		b.WriteString("No clear patterns detected.\n")
	}
	for _, p := range patterns {
		fmt.Fprintf(&b, "• %s\n", p)
	}
	b.WriteString("\n")

	b.WriteString("Recommendations\n")
	if len(recs) == 0 {
		b.WriteString("No recommendations yet.\n")
	}
	for _, r := range recs {
		fmt.Fprintf(&b, "• %s\n", r.Title)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Mood Entries\nTotal entries: %d\n\n", moodCount)
	fmt.Fprintf(&b, "Chat Messages\nTotal messages: %d\n", chatCount)
	return b.String()
}

// DecodePayload parses an exported payload.
func DecodePayload(data []byte) (*ReportPayload, error) {
	var p ReportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	return &p, nil
}
