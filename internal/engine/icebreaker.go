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

var validateIcebreakerQuestion = validate.Field("question",
	validate.Required(),
	validate.MaxLength(500),
)

var validateIcebreakerResponse = validate.Field("response",
	validate.Required(),
	validate.MaxLength(500),
)

// CreateIcebreaker opens an icebreaker prompt in the event's live room.
// Organizer only.
func (e *Engine) CreateIcebreaker(ctx context.Context, eventID, organizerID, question string) (*domain.Icebreaker, error) {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}
	if err := validateIcebreakerQuestion(question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	icebreaker := domain.NewIcebreaker(event.ID, question, organizerID)
	if err := e.repos.Icebreakers.Create(ctx, icebreaker); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.NewIcebreaker, icebreaker)
	return icebreaker, nil
}

// RespondIcebreaker appends the caller's response, at most one per user.
func (e *Engine) RespondIcebreaker(ctx context.Context, c *ws.Client, icebreakerID, response string) error {
	lock := e.locks.get(icebreakerID)
	lock.Lock()
	defer lock.Unlock()

	icebreaker, err := e.repos.Icebreakers.GetByID(ctx, icebreakerID)
	if err != nil {
		if errors.Is(err, domain.ErrIcebreakerNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := e.liveRoom(ctx, icebreaker.LiveEventID); err != nil {
		return err
	}
	if err := validateIcebreakerResponse(response); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := icebreaker.AddResponse(c.UserID, c.DisplayName, response, time.Now()); err != nil {
		return err
	}

	if err := e.repos.Icebreakers.Update(ctx, icebreaker); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(icebreaker.LiveEventID, ws.IcebreakerResponse, map[string]any{
		"icebreakerId":  icebreaker.ID,
		"responseCount": icebreaker.ResponseCount,
		"userId":        c.UserID,
		"displayName":   c.DisplayName,
		"response":      response,
	})
	e.record(icebreaker.LiveEventID, c.UserID, domain.ActionIcebreakerReplied, map[string]any{"icebreakerId": icebreakerID})
	return nil
}
