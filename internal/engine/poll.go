package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/validate"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

const maxPollOptions = 10

var validatePollQuestion = validate.Field("question",
	validate.Required(),
	validate.MaxLength(500),
)

var validatePollOption = validate.Field("option",
	validate.Required(),
	validate.MaxLength(200),
)

type CreatePollInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allowMultiple"`
	ExpiresInSec  int      `json:"expiresInSec,omitempty"`
}

// CreatePoll opens a poll in the event's live room and announces it.
// Organizer only.
func (e *Engine) CreatePoll(ctx context.Context, eventID, organizerID string, input CreatePollInput) (*domain.Poll, error) {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}
	if !event.Settings.PollsEnabled {
		return nil, domain.ErrFeatureDisabled
	}

	if err := validatePollQuestion(input.Question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(input.Options) > maxPollOptions {
		return nil, fmt.Errorf("%w: at most %d options", ErrValidation, maxPollOptions)
	}
	for _, opt := range input.Options {
		if err := validatePollOption(opt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	var expiresAt *time.Time
	if input.ExpiresInSec > 0 {
		t := time.Now().Add(time.Duration(input.ExpiresInSec) * time.Second)
		expiresAt = &t
	}

	poll, err := domain.NewPoll(event.ID, input.Question, input.Options, input.AllowMultiple, expiresAt, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := e.repos.Polls.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.NewPoll, NewPollView(poll))
	return poll, nil
}

// VotePoll applies one user's vote. The poll is locked for the whole
// read-validate-write sequence so concurrent votes never lose an update.
func (e *Engine) VotePoll(ctx context.Context, c *ws.Client, pollID string, optionIndexes []int) error {
	lock := e.locks.get(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := e.repos.Polls.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := e.liveRoom(ctx, poll.LiveEventID); err != nil {
		return err
	}

	if err := poll.RecordVote(c.UserID, optionIndexes, time.Now()); err != nil {
		return err
	}

	if err := e.repos.Polls.Update(ctx, poll); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(poll.LiveEventID, ws.PollVote, NewPollView(poll))
	e.record(poll.LiveEventID, c.UserID, domain.ActionPollVoted, map[string]any{"pollId": pollID})
	return nil
}

// ClosePoll stops voting and broadcasts the final results. Organizer only;
// closing an already-closed poll is a conflict.
func (e *Engine) ClosePoll(ctx context.Context, eventID, organizerID, pollID string) (*domain.Poll, error) {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}

	lock := e.locks.get(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := e.repos.Polls.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if poll.LiveEventID != event.ID {
		return nil, domain.ErrPollNotFound
	}
	if !poll.IsActive {
		return nil, domain.ErrPollClosed
	}

	poll.Close()

	if err := e.repos.Polls.Update(ctx, poll); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.PollClosed, NewPollView(poll))
	e.record(event.ID, organizerID, domain.ActionPollClosed, map[string]any{"pollId": pollID})
	return poll, nil
}

// liveRoomByEventID resolves the latest room for a scheduled event; REST
// routes address rooms by event id.
func (e *Engine) liveRoomByEventID(ctx context.Context, eventID string) (*domain.LiveEvent, error) {
	event, err := e.repos.LiveEvents.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if event.Status == domain.LiveEventEnded {
		return nil, domain.ErrEventEnded
	}
	if !event.IsLive() {
		return nil, domain.ErrEventNotLive
	}
	return event, nil
}
