package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// ExportMoodsCSV renders mood history oldest first.
func ExportMoodsCSV(moods []models.MoodEntry) ([]byte, error) {
	sorted := append([]models.MoodEntry(nil), moods...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "timestamp", "mood_score", "note"})
	for _, m := range sorted {
		rec := []string{m.ID, m.Timestamp.UTC().Format(time.RFC3339), strconv.Itoa(m.MoodScore), m.Note}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAssessmentsCSV renders one row per scored session. In-progress sessions are skipped.
func ExportAssessmentsCSV(sessions []models.AssessmentSession) ([]byte, error) {
	sorted := append([]models.AssessmentSession(nil), sessions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartedAt.Before(sorted[j].StartedAt) })

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "type", "started_at", "completed_at", "score", "severity_band"})
	for _, s := range sorted {
		if s.Result == nil {
			continue
		}
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.UTC().Format(time.RFC3339)
		}
		rec := []string{
			s.ID,
			string(s.Type),
			s.StartedAt.UTC().Format(time.RFC3339),
			completed,
			strconv.Itoa(s.Result.Score),
			s.Result.SeverityBand,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
