package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMessageNotFound = errors.New("chat message not found")

// ChatMessage is append-only: moderation flips IsVisible but never deletes.
type ChatMessage struct {
	ID           string     `bson:"_id" json:"id"`
	LiveEventID  string     `bson:"live_event_id" json:"liveEventId"`
	UserID       string     `bson:"user_id" json:"userId"`
	DisplayName  string     `bson:"display_name" json:"displayName"`
	Message      string     `bson:"message" json:"message"`
	MessageType  string     `bson:"message_type" json:"messageType"`
	IsVisible    bool       `bson:"is_visible" json:"isVisible"`
	HiddenBy     string     `bson:"hidden_by,omitempty" json:"-"`
	HiddenReason string     `bson:"hidden_reason,omitempty" json:"-"`
	HiddenAt     *time.Time `bson:"hidden_at,omitempty" json:"-"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
}

type ChatMessageRepository interface {
	Create(ctx context.Context, message *ChatMessage) error
	GetByID(ctx context.Context, id string) (*ChatMessage, error)
	ListVisible(ctx context.Context, liveEventID string, limit int) ([]ChatMessage, error)
	Update(ctx context.Context, message *ChatMessage) error
	CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

func NewChatMessage(liveEventID, userID, displayName, message, messageType string) *ChatMessage {
	if messageType == "" {
		messageType = "text"
	}
	return &ChatMessage{
		ID:          uuid.NewString(),
		LiveEventID: liveEventID,
		UserID:      userID,
		DisplayName: displayName,
		Message:     message,
		MessageType: messageType,
		IsVisible:   true,
		CreatedAt:   time.Now(),
	}
}

func (m *ChatMessage) Hide(hiddenBy, reason string, now time.Time) {
	m.IsVisible = false
	m.HiddenBy = hiddenBy
	m.HiddenReason = reason
	m.HiddenAt = &now
}
