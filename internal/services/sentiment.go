package services

import (
	"strings"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// SentimentClassifier scores free text. Implementations are best-effort.
type SentimentClassifier interface {
	Classify(text string) models.SentimentResult
}

// KeywordClassifier is a lightweight offline classifier matching a few keyword stems.
type KeywordClassifier struct{}

var sentimentRules = []struct {
	stems    []string
	emotion  string
	polarity float64
}{
	{stems: []string{"sad", "down", "unhappy"}, emotion: "sad", polarity: -0.6},
	{stems: []string{"stress", "anx", "worried"}, emotion: "anxious", polarity: -0.4},
	{stems: []string{"happy", "good", "great"}, emotion: "happy", polarity: 0.6},
}

func (KeywordClassifier) Classify(text string) models.SentimentResult {
	lower := strings.ToLower(text)
	for _, rule := range sentimentRules {
		for _, stem := range rule.stems {
			if strings.Contains(lower, stem) {
				return models.SentimentResult{Polarity: rule.polarity, TopEmotion: rule.emotion}
			}
		}
	}
	return models.SentimentResult{Polarity: 0, TopEmotion: "neutral"}
}
