package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InteractionAction string

const (
	ActionRoomJoined        InteractionAction = "room_joined"
	ActionRoomLeft          InteractionAction = "room_left"
	ActionPollVoted         InteractionAction = "poll_voted"
	ActionPollClosed        InteractionAction = "poll_closed"
	ActionQuestionAsked     InteractionAction = "question_asked"
	ActionQuestionUpvoted   InteractionAction = "question_upvoted"
	ActionQuestionAnswered  InteractionAction = "question_answered"
	ActionQuestionDismissed InteractionAction = "question_dismissed"
	ActionIcebreakerReplied InteractionAction = "icebreaker_replied"
	ActionPhotoShared       InteractionAction = "photo_shared"
	ActionPhotoLiked        InteractionAction = "photo_liked"
	ActionPhotoModerated    InteractionAction = "photo_moderated"
	ActionChatSent          InteractionAction = "chat_sent"
	ActionChatHidden        InteractionAction = "chat_hidden"
	ActionEventStarted      InteractionAction = "event_started"
	ActionEventEnded        InteractionAction = "event_ended"
)

// InteractionLog is the analytics record emitted (fire and forget) for every
// state-changing interaction.
type InteractionLog struct {
	ID          string            `bson:"_id" json:"id"`
	LiveEventID string            `bson:"live_event_id" json:"liveEventId"`
	UserID      string            `bson:"user_id" json:"userId"`
	Action      InteractionAction `bson:"action" json:"action"`
	Metadata    map[string]any    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
}

type InteractionLogRepository interface {
	Log(ctx context.Context, log *InteractionLog) error
	GetByLiveEventID(ctx context.Context, liveEventID string, limit int) ([]InteractionLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewInteractionLog(liveEventID, userID string, action InteractionAction, metadata map[string]any) *InteractionLog {
	return &InteractionLog{
		ID:          uuid.NewString(),
		LiveEventID: liveEventID,
		UserID:      userID,
		Action:      action,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}
}
