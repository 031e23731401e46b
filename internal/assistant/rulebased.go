package assistant

import (
	"context"
	"strings"

	"github.com/soaringjerry/Nuvio/internal/models"
)

const (
	greetingReply    = "Hi, I'm Nuvio. Want to tell me how you're feeling today?"
	overwhelmedReply = "I hear you. Want to tell me what's making it feel the most overwhelming right now?"
	heavyReply       = "That sounds heavy. I'm here with you. What has been weighing on you the most?"
	brightReply      = "That's good to hear. What helped today go well?"
	defaultReply     = "I'm here with you. What's on your mind today?"
)

var stressStems = []string{"anx", "overwhelm", "stress"}

// RuleBased answers without a model. It never fails.
type RuleBased struct{}

func (RuleBased) Reply(_ context.Context, userText string, sentiment *models.SentimentResult, history []models.ChatMessage) (string, error) {
	return ruleReply(userText, sentiment, history), nil
}

func ruleReply(userText string, sentiment *models.SentimentResult, history []models.ChatMessage) string {
	if len(history) <= 1 {
		return greetingReply
	}
	text := strings.ToLower(strings.TrimSpace(userText))
	for _, stem := range stressStems {
		if strings.Contains(text, stem) {
			return overwhelmedReply
		}
	}
	if sentiment != nil {
		switch sentiment.TopEmotion {
		case "anxious":
			return overwhelmedReply
		case "sad":
			return heavyReply
		case "happy":
			return brightReply
		}
	}
	return defaultReply
}
