package api

import (
	"context"
	"errors"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// ErrEmailTaken is returned by AddUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// Store persists every record a user owns. All record methods are scoped by userID;
// list methods return copies in insertion order.
type Store interface {
	AddUser(ctx context.Context, u models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	AddMood(ctx context.Context, userID string, m models.MoodEntry) error
	DeleteMood(ctx context.Context, userID, id string) (bool, error)
	ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error)

	AddChatMessage(ctx context.Context, userID string, msg models.ChatMessage) error
	ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, userID string) error

	AddAssessment(ctx context.Context, userID string, s models.AssessmentSession) error
	ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error)
}

var _ Store = (*MemoryStore)(nil)
