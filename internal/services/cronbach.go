package services

import (
	"sort"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// CronbachAlpha computes internal consistency for a [respondents][items] matrix using
// population variance. Results are clamped to [0, 1]; ragged or degenerate input gives 0.
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}
	totals := make([]float64, n)
	column := make([]float64, n)
	var sumItemVars float64
	for j := 0; j < k; j++ {
		for i, row := range matrix {
			if len(row) != k {
				return 0
			}
			column[i] = row[j]
			totals[i] += row[j]
		}
		sumItemVars += popVariance(column)
	}
	totalVar := popVariance(totals)
	if totalVar == 0 {
		return 0
	}
	kf := float64(k)
	alpha := (kf / (kf - 1)) * (1 - sumItemVars/totalVar)
	switch {
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

func popVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}

// ItemConsistency treats each completed session of type t as one respondent row and
// returns Cronbach's alpha together with the number of rows used. Sessions missing any
// question are skipped.
func ItemConsistency(t models.AssessmentType, sessions []models.AssessmentSession) (float64, int) {
	questions, err := Questions(t)
	if err != nil {
		return 0, 0
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)

	matrix := make([][]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.Type != t || s.Result == nil {
			continue
		}
		answers := make(map[string]int, len(s.Responses))
		for _, r := range s.Responses {
			answers[r.QuestionID] = r.AnswerValue
		}
		row := make([]float64, 0, len(ids))
		for _, id := range ids {
			v, ok := answers[id]
			if !ok {
				break
			}
			row = append(row, float64(v))
		}
		if len(row) == len(ids) {
			matrix = append(matrix, row)
		}
	}
	return CronbachAlpha(matrix), len(matrix)
}
