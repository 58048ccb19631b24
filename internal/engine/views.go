package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stagelink/backend/internal/domain"
)

// PollOptionView is the public shape of one poll option: counts and integer
// percentages only, never the voter list.
type PollOptionView struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	VoteCount  int    `json:"voteCount"`
	Percentage int    `json:"percentage"`
}

type PollView struct {
	ID            string           `json:"id"`
	LiveEventID   string           `json:"liveEventId"`
	Question      string           `json:"question"`
	Options       []PollOptionView `json:"options"`
	TotalVotes    int              `json:"totalVotes"`
	AllowMultiple bool             `json:"allowMultiple"`
	IsActive      bool             `json:"isActive"`
	ExpiresAt     any              `json:"expiresAt,omitempty"`
}

// NewPollView projects a poll for broadcast. Percentages are rounded to the
// nearest integer and are all zero when nobody voted yet.
func NewPollView(p *domain.Poll) PollView {
	options := make([]PollOptionView, 0, len(p.Options))
	for i, opt := range p.Options {
		pct := 0
		if p.TotalVotes > 0 {
			pct = int(math.Round(float64(opt.VoteCount) / float64(p.TotalVotes) * 100))
		}
		options = append(options, PollOptionView{
			Index:      i,
			Text:       opt.Text,
			VoteCount:  opt.VoteCount,
			Percentage: pct,
		})
	}

	view := PollView{
		ID:            p.ID,
		LiveEventID:   p.LiveEventID,
		Question:      p.Question,
		Options:       options,
		TotalVotes:    p.TotalVotes,
		AllowMultiple: p.AllowMultiple,
		IsActive:      p.IsActive,
	}
	if p.ExpiresAt != nil {
		view.ExpiresAt = *p.ExpiresAt
	}
	return view
}

// RoomState is the snapshot served to a client joining mid-event and on the
// room detail endpoint.
type RoomState struct {
	LiveEvent   *domain.LiveEvent    `json:"liveEvent"`
	ActiveUsers int                  `json:"activeUsers"`
	Polls       []PollView           `json:"polls"`
	Questions   []domain.Question    `json:"questions"`
	Icebreakers []domain.Icebreaker  `json:"icebreakers"`
	Photos      []domain.LivePhoto   `json:"photos"`
	Chat        []domain.ChatMessage `json:"chat"`
}

const defaultHistoryLimit = 100

// InteractionHistory returns the most recent interaction records for the
// event's room, newest first. Organizer only; attendees never see the raw
// log. Records exist only when the analytics pipeline is running.
func (e *Engine) InteractionHistory(ctx context.Context, eventID, organizerID string, limit int) ([]domain.InteractionLog, error) {
	event, err := e.repos.LiveEvents.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	logs, err := e.repos.InteractionLogs.GetByLiveEventID(ctx, event.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return logs, nil
}

// RoomSnapshotByEventID serves the room detail endpoint, which addresses
// rooms by their scheduled event id.
func (e *Engine) RoomSnapshotByEventID(ctx context.Context, eventID string) (*RoomState, error) {
	event, err := e.repos.LiveEvents.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return e.RoomSnapshot(ctx, event.ID)
}

// RoomSnapshot assembles the current public state of a room. Only approved
// photos and visible chat appear; moderation metadata never leaves the
// domain structs (json-omitted fields).
func (e *Engine) RoomSnapshot(ctx context.Context, roomID string) (*RoomState, error) {
	event, err := e.repos.LiveEvents.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	polls, err := e.repos.Polls.ListByLiveEvent(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	pollViews := make([]PollView, 0, len(polls))
	for i := range polls {
		pollViews = append(pollViews, NewPollView(&polls[i]))
	}

	questions, err := e.repos.Questions.ListByLiveEvent(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	icebreakers, err := e.repos.Icebreakers.ListByLiveEvent(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	photos, err := e.repos.Photos.ListApproved(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	chat, err := e.repos.Chat.ListVisible(ctx, roomID, e.chatHistorySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &RoomState{
		LiveEvent:   event,
		ActiveUsers: e.registry.Count(roomID),
		Polls:       pollViews,
		Questions:   questions,
		Icebreakers: icebreakers,
		Photos:      photos,
		Chat:        chat,
	}, nil
}
