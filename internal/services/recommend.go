package services

import (
	"strings"

	"github.com/soaringjerry/Nuvio/internal/models"
)

var (
	recResetRoutine = models.Recommendation{
		ID:        "reset-routine",
		Title:     "Reset routine",
		Rationale: "Your recent mood average is low.",
		Action:    "Try a 10-minute walk, one small task and a short check-in with someone you trust.",
	}
	recMaintainStability = models.Recommendation{
		ID:        "maintain-stability",
		Title:     "Maintain stability",
		Rationale: "Your mood looks relatively stable.",
		Action:    "Keep your sleep schedule and add one enjoyable activity today.",
	}
	recExtraSupport = models.Recommendation{
		ID:        "extra-support",
		Title:     "Extra support",
		Rationale: "Your assessment suggests higher distress.",
		Action:    "Consider professional support resources and reduce overload where possible.",
	}

	recSupportMood = models.Recommendation{
		ID:        "support-mood",
		Title:     "Support your mood",
		Rationale: "Your average mood has been on the lower side this week.",
		Action:    "Try a short daily walk or write down one thing you are grateful for today.",
	}
	recReduceFluctuations = models.Recommendation{
		ID:        "reduce-fluctuations",
		Title:     "Reduce mood fluctuations",
		Rationale: "Your mood changed significantly between days.",
		Action:    "Aim for consistent sleep and meal times to stabilize your routine.",
	}
	recCheckInDaily = models.Recommendation{
		ID:        "check-in-daily",
		Title:     "Check in daily",
		Rationale: "There are only a few check-ins this week.",
		Action:    "Log your mood once a day so the weekly view has enough data.",
	}
	recKeepItUp = models.Recommendation{
		ID:        "keep-it-up",
		Title:     "Keep it up",
		Rationale: "Your mood looks relatively stable this week.",
		Action:    "Maintain your routine and do one enjoyable activity today.",
	}
)

const (
	lowAverageThreshold = 2
	weeklyLowAverage    = 3.0
	weeklySpreadTrigger = 1.5
	weeklySparseDays    = 3
	severeBandMarker    = "Severe"
	elevatedBandMarker  = "Elevated"
)

// Generate applies the assessment-aware rules to the full mood history.
// The first rule always contributes, so the list is never empty.
func Generate(moods []models.MoodEntry, latest *models.AssessmentResult) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 2)

	avg := 0
	if len(moods) > 0 {
		sum := 0
		for _, m := range moods {
			sum += m.MoodScore
		}
		avg = sum / len(moods)
	}
	if avg <= lowAverageThreshold {
		recs = append(recs, recResetRoutine)
	} else {
		recs = append(recs, recMaintainStability)
	}

	if latest != nil && (strings.Contains(latest.SeverityBand, severeBandMarker) || strings.Contains(latest.SeverityBand, elevatedBandMarker)) {
		recs = append(recs, recExtraSupport)
	}
	return recs
}

// GenerateWeekly applies the window-based rules to a prebuilt aggregate.
func GenerateWeekly(insights models.WeeklyInsights) []models.Recommendation {
	recs := []models.Recommendation{}
	if insights.AverageMood < weeklyLowAverage {
		recs = append(recs, recSupportMood)
	}
	if insights.BestDay != nil && insights.WorstDay != nil && insights.BestDay.AvgMood-insights.WorstDay.AvgMood >= weeklySpreadTrigger {
		recs = append(recs, recReduceFluctuations)
	}
	if insights.RecordedDays < weeklySparseDays {
		recs = append(recs, recCheckInDaily)
	}
	if len(recs) == 0 {
		recs = append(recs, recKeepItUp)
	}
	return recs
}

// DailyTip returns a one-line nudge for the weekly view, or "" when none applies.
func DailyTip(insights models.WeeklyInsights) string {
	if insights.AverageMood < weeklyLowAverage {
		return "Try to slow down today and do something calming."
	}
	if insights.RecordedDays < weeklySparseDays {
		return "Log your mood daily for better insights."
	}
	return ""
}
