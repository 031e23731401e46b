package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/soaringjerry/Nuvio/internal/config"
	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/models"
	"github.com/soaringjerry/Nuvio/internal/services"
)

const systemPrompt = "You are a supportive mental health companion. " +
	"Be kind, practical, and ask one short follow-up question. " +
	"Do not claim to be a licensed therapist. " +
	"If the user seems in immediate danger, advise contacting local emergency services."

// generator is the slice of an eino chat model the client uses.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	QPS          int
	RPM          int
	MaxRetries   int
	HistoryTurns int

	// FallbackOnError answers with RuleBased when the model call fails instead of
	// returning the error.
	FallbackOnError bool
}

// Client replies through an OpenAI-compatible chat model.
type Client struct {
	model           generator
	limiter         *rate.Limiter
	maxRetries      int
	baseDelay       time.Duration
	historyTurns    int
	fallbackOnError bool
	sleep           func(ctx context.Context, d time.Duration) error
	log             logrus.FieldLogger
}

const (
	replyTemperature float32 = 0.7
	replyMaxTokens           = 220
)

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	temperature := replyTemperature
	maxTokens := replyMaxTokens
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     opts.BaseURL,
		APIKey:      opts.APIKey,
		Model:       opts.Model,
		Timeout:     opts.Timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return newClient(cm, opts), nil
}

func newClient(g generator, opts Options) *Client {
	limit := rate.Inf
	if opts.RPM > 0 {
		limit = rate.Limit(float64(opts.RPM) / 60.0)
	}
	burst := opts.QPS
	if burst <= 0 {
		burst = 1
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	turns := opts.HistoryTurns
	if turns <= 0 {
		turns = 10
	}
	return &Client{
		model:           g,
		limiter:         rate.NewLimiter(limit, burst),
		maxRetries:      retries,
		baseDelay:       2 * time.Second,
		historyTurns:    turns,
		fallbackOnError: opts.FallbackOnError,
		sleep:           sleepCtx,
		log:             logger.L().WithField("component", "assistant"),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// Reply asks the model for an answer to userText. history is the stored thread, which
// may already end with userText; only the last HistoryTurns earlier messages are sent.
func (c *Client) Reply(ctx context.Context, userText string, sentiment *models.SentimentResult, history []models.ChatMessage) (string, error) {
	messages := c.buildMessages(userText, sentiment, history)

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.model.Generate(ctx, messages)
		if err != nil {
			lastErr = err
			if isRateLimited(err) && i < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<i)
				c.log.WithField("attempt", i+1).WithField("delay", delay.String()).Warn("rate limited, backing off")
				if err := c.sleep(ctx, delay); err != nil {
					return "", err
				}
				continue
			}
			break
		}
		content := ""
		if resp != nil {
			content = strings.TrimSpace(resp.Content)
		}
		if content == "" {
			c.log.Warn("empty model reply, using rule-based fallback")
			return ruleReply(userText, sentiment, history), nil
		}
		return content, nil
	}
	if c.fallbackOnError && !errors.Is(lastErr, context.Canceled) {
		c.log.WithError(lastErr).Warn("model call failed, using rule-based fallback")
		return ruleReply(userText, sentiment, history), nil
	}
	return "", fmt.Errorf("assistant reply: %w", lastErr)
}

func (c *Client) buildMessages(userText string, sentiment *models.SentimentResult, history []models.ChatMessage) []*schema.Message {
	prior := history
	if n := len(prior); n > 0 && prior[n-1].Role == models.RoleUser && prior[n-1].Content == userText {
		prior = prior[:n-1]
	}
	if len(prior) > c.historyTurns {
		prior = prior[len(prior)-c.historyTurns:]
	}

	system := systemPrompt
	if sentiment != nil && sentiment.TopEmotion != "" && sentiment.TopEmotion != "neutral" {
		system += fmt.Sprintf(" The user's latest message reads as %s.", sentiment.TopEmotion)
	}
	messages := make([]*schema.Message, 0, len(prior)+2)
	messages = append(messages, &schema.Message{Role: schema.System, Content: system})
	for _, m := range prior {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, &schema.Message{Role: schema.User, Content: m.Content})
		case models.RoleAssistant:
			messages = append(messages, &schema.Message{Role: schema.Assistant, Content: m.Content})
		}
	}
	messages = append(messages, &schema.Message{Role: schema.User, Content: userText})
	return messages
}

// FromConfig returns a model-backed Client, or RuleBased when no API key is set.
func FromConfig(ctx context.Context, cfg config.AssistantConfig) (services.Replier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.L().Info("assistant: no API key configured, using rule-based replies")
		return RuleBased{}, nil
	}
	return NewClient(ctx, Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		Timeout:         cfg.Timeout,
		QPS:             cfg.QPS,
		RPM:             cfg.RPM,
		MaxRetries:      cfg.MaxRetries,
		HistoryTurns:    cfg.HistoryTurns,
		FallbackOnError: cfg.FallbackOnError,
	})
}
