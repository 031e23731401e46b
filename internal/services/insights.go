package services

import (
	"sort"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// DefaultWindowDays is the trailing window used by weekly views.
const DefaultWindowDays = 7

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Aggregate groups moods by calendar day over the trailing window ending at windowEnd.
// The window starts at the beginning of the day windowDays-1 days before windowEnd and
// includes both ends; days are computed in windowEnd's location. Entries outside the
// window are dropped. When several days tie for best or worst, the earliest day wins.
func Aggregate(moods []models.MoodEntry, windowEnd time.Time, windowDays int) models.WeeklyInsights {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	loc := windowEnd.Location()
	from := startOfDay(windowEnd).AddDate(0, 0, -(windowDays - 1))

	type bucket struct {
		sum, count int
	}
	buckets := map[time.Time]*bucket{}
	total, n := 0, 0
	for _, m := range moods {
		if m.Timestamp.Before(from) || m.Timestamp.After(windowEnd) {
			continue
		}
		day := startOfDay(m.Timestamp.In(loc))
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += m.MoodScore
		b.count++
		total += m.MoodScore
		n++
	}

	points := make([]models.DailyMoodPoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, models.DailyMoodPoint{
			Day:     day,
			AvgMood: float64(b.sum) / float64(b.count),
			Count:   b.count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })

	out := models.WeeklyInsights{
		From:         from,
		To:           windowEnd,
		RecordedDays: len(points),
		Points:       points,
	}
	if n > 0 {
		out.AverageMood = float64(total) / float64(n)
	}
	if len(points) > 0 {
		best, worst := 0, 0
		for i := 1; i < len(points); i++ {
			if points[i].AvgMood > points[best].AvgMood {
				best = i
			}
			if points[i].AvgMood < points[worst].AvgMood {
				worst = i
			}
		}
		b, w := points[best], points[worst]
		out.BestDay = &b
		out.WorstDay = &w
	}
	return out
}
