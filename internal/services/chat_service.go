package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/models"
)

type ChatStore interface {
	AddChatMessage(ctx context.Context, userID string, msg models.ChatMessage) error
	ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, userID string) error
}

// Replier produces the assistant's answer to userText given recent context.
type Replier interface {
	Reply(ctx context.Context, userText string, sentiment *models.SentimentResult, history []models.ChatMessage) (string, error)
}

type ChatService struct {
	store       ChatStore
	replier     Replier
	classifier  SentimentClassifier
	now         func() time.Time
	idGenerator func() string
}

func NewChatService(store ChatStore, replier Replier, classifier SentimentClassifier) *ChatService {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &ChatService{
		store:       store,
		replier:     replier,
		classifier:  classifier,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

type SendResult struct {
	UserMessage      models.ChatMessage `json:"user_message"`
	AssistantMessage models.ChatMessage `json:"assistant_message"`
}

// Send stores the user's message with its sentiment, asks the replier and stores the
// answer. Any failure after input validation surfaces as ErrSendFailed.
func (s *ChatService) Send(ctx context.Context, userID, text string) (*SendResult, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, NewInvalidError("message text required")
	}
	if s.replier == nil {
		return nil, ErrSendFailed
	}
	log := logger.L().WithFields(logrus.Fields{"component": "chat", "user": userID})

	sentiment := s.classifier.Classify(trimmed)
	userMsg := models.ChatMessage{
		ID:        s.idGenerator(),
		Timestamp: s.now(),
		Role:      models.RoleUser,
		Content:   trimmed,
		Sentiment: &sentiment,
	}
	if err := s.store.AddChatMessage(ctx, userID, userMsg); err != nil {
		log.WithError(err).Warn("save user message failed")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	history, err := s.store.ListChatMessages(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("load chat context failed")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	reply, err := s.replier.Reply(ctx, trimmed, &sentiment, history)
	if err != nil {
		log.WithError(err).Warn("assistant reply failed")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	replyMsg := models.ChatMessage{
		ID:        s.idGenerator(),
		Timestamp: s.now(),
		Role:      models.RoleAssistant,
		Content:   reply,
	}
	if err := s.store.AddChatMessage(ctx, userID, replyMsg); err != nil {
		log.WithError(err).Warn("save assistant message failed")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return &SendResult{UserMessage: userMsg, AssistantMessage: replyMsg}, nil
}

// Thread returns the conversation oldest first.
func (s *ChatService) Thread(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	msgs, err := s.store.ListChatMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	return msgs, nil
}

func (s *ChatService) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return NewUnauthorizedError("unauthorized")
	}
	if err := s.store.ClearChat(ctx, userID); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}
