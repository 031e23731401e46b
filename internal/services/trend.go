package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

const (
	noMoodHistoryText     = "No mood history yet. Start with a daily check-in to see trends."
	noRecentAssessments   = "No recent assessments"
	patternTrendingDown   = "Mood is trending down in the last few check-ins."
	patternImproving      = "Mood is improving across recent check-ins."
	patternFluctuating    = "Mood is fluctuating recently."
	directionTooFewPoints = "Track more days to detect patterns."
)

// LatestResult returns the result of the most recently started session that has been scored.
func LatestResult(assessments []models.AssessmentSession) *models.AssessmentResult {
	sorted := append([]models.AssessmentSession(nil), assessments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartedAt.Before(sorted[j].StartedAt) })
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Result != nil {
			res := *sorted[i].Result
			return &res
		}
	}
	return nil
}

// WeeklySummary reports the mean mood of the 7 days before now and the latest severity band.
func WeeklySummary(moods []models.MoodEntry, assessments []models.AssessmentSession, now time.Time) string {
	cutoff := now.AddDate(0, 0, -7)
	sum, n := 0, 0
	for _, m := range moods {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		sum += m.MoodScore
		n++
	}
	if n == 0 {
		return noMoodHistoryText
	}
	avg := float64(sum) / float64(n)
	latest := noRecentAssessments
	if res := LatestResult(assessments); res != nil {
		latest = res.SeverityBand
	}
	return fmt.Sprintf("Last 7 days average mood: %.1f/5. Latest assessment: %s.", avg, latest)
}

// DetectPatterns classifies the direction of the last three check-ins.
// Fewer than three entries make no claim.
func DetectPatterns(moods []models.MoodEntry) []string {
	if len(moods) < 3 {
		return []string{}
	}
	sorted := append([]models.MoodEntry(nil), moods...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	last := sorted[len(sorted)-3:]
	a, b, c := last[0].MoodScore, last[1].MoodScore, last[2].MoodScore
	switch {
	case a > b && b > c:
		return []string{patternTrendingDown}
	case a < b && b < c:
		return []string{patternImproving}
	default:
		return []string{patternFluctuating}
	}
}

// WeeklyDirection compares the first and last day of an aggregate.
func WeeklyDirection(insights models.WeeklyInsights) string {
	if len(insights.Points) < 2 {
		return directionTooFewPoints
	}
	diff := insights.Points[len(insights.Points)-1].AvgMood - insights.Points[0].AvgMood
	switch {
	case diff > 0.5:
		return "Your mood has been improving over the last few days."
	case diff < -0.5:
		return "Your mood has been declining recently."
	default:
		return "Your mood has been relatively stable this week."
	}
}
