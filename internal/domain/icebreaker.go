package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIcebreakerNotFound = errors.New("icebreaker not found")
	ErrIcebreakerClosed   = errors.New("icebreaker is closed")
	ErrAlreadyResponded   = errors.New("already responded to this icebreaker")
)

type IcebreakerResponse struct {
	UserID      string    `bson:"user_id" json:"userId"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Response    string    `bson:"response" json:"response"`
	RespondedAt time.Time `bson:"responded_at" json:"respondedAt"`
}

// Icebreaker collects at most one response per user.
type Icebreaker struct {
	ID            string               `bson:"_id" json:"id"`
	LiveEventID   string               `bson:"live_event_id" json:"liveEventId"`
	Question      string               `bson:"question" json:"question"`
	Responses     []IcebreakerResponse `bson:"responses" json:"responses"`
	ResponseCount int                  `bson:"response_count" json:"responseCount"`
	IsActive      bool                 `bson:"is_active" json:"isActive"`
	CreatedBy     string               `bson:"created_by" json:"createdBy"`
	CreatedAt     time.Time            `bson:"created_at" json:"createdAt"`
}

type IcebreakerRepository interface {
	Create(ctx context.Context, icebreaker *Icebreaker) error
	GetByID(ctx context.Context, id string) (*Icebreaker, error)
	ListByLiveEvent(ctx context.Context, liveEventID string) ([]Icebreaker, error)
	Update(ctx context.Context, icebreaker *Icebreaker) error
	EnsureIndexes(ctx context.Context) error
}

func NewIcebreaker(liveEventID, question, createdBy string) *Icebreaker {
	return &Icebreaker{
		ID:          uuid.NewString(),
		LiveEventID: liveEventID,
		Question:    question,
		Responses:   []IcebreakerResponse{},
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
}

func (i *Icebreaker) HasResponded(userID string) bool {
	for _, r := range i.Responses {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func (i *Icebreaker) AddResponse(userID, displayName, response string, now time.Time) error {
	if !i.IsActive {
		return ErrIcebreakerClosed
	}
	if i.HasResponded(userID) {
		return ErrAlreadyResponded
	}
	i.Responses = append(i.Responses, IcebreakerResponse{
		UserID:      userID,
		DisplayName: displayName,
		Response:    response,
		RespondedAt: now,
	})
	i.ResponseCount = len(i.Responses)
	return nil
}
