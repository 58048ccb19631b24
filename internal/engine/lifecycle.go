package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

// StartEvent opens the live room for a scheduled event. Organizer only; a
// second start while the room is live is a conflict.
func (e *Engine) StartEvent(ctx context.Context, eventID, organizerID string, settings *domain.LiveEventSettings) (*domain.LiveEvent, error) {
	lock := e.locks.get(eventID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.repos.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.repos.Events.IsOrganizer(ctx, eventID, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, domain.ErrNotOrganizer
	}

	existing, err := e.repos.LiveEvents.GetByEventID(ctx, eventID)
	if err != nil && !errors.Is(err, domain.ErrLiveEventNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if existing != nil {
		switch existing.Status {
		case domain.LiveEventLive:
			return nil, domain.ErrAlreadyLive
		case domain.LiveEventEnded:
			return nil, domain.ErrEventEnded
		}
	}

	liveSettings := domain.DefaultLiveEventSettings()
	if settings != nil {
		liveSettings = *settings
	}

	liveEvent := domain.NewLiveEvent(eventID, liveSettings)
	if err := liveEvent.Start(time.Now()); err != nil {
		return nil, err
	}

	if err := e.repos.LiveEvents.Create(ctx, liveEvent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.logger.Info(logging.Engine, logging.Startup, "live event started", map[logging.ExtraKey]any{
		logging.RoomID: liveEvent.ID,
	})
	e.router.Publish(liveEvent.ID, ws.EventStarted, liveEvent)
	e.record(liveEvent.ID, organizerID, domain.ActionEventStarted, nil)
	return liveEvent, nil
}

// EndEvent closes the room. The final metrics snapshot is frozen before the
// terminal transition persists and no interaction is accepted afterwards.
func (e *Engine) EndEvent(ctx context.Context, eventID, organizerID string) (*domain.LiveEvent, error) {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}

	lock := e.locks.get(event.ID)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the lock; the reconcile loop shares it.
	event, err = e.repos.LiveEvents.GetByID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if total, err := e.totalInteractions(ctx, event.ID); err != nil {
		e.logger.Warn(logging.Engine, logging.Analytics, "final interaction count unavailable", map[logging.ExtraKey]any{
			logging.RoomID:       event.ID,
			logging.ErrorMessage: err.Error(),
		})
	} else {
		event.Metrics.TotalInteractions = total
	}
	event.ObserveAttendance(e.registry.Count(event.ID))

	if err := event.End(time.Now()); err != nil {
		return nil, err
	}

	if err := e.repos.LiveEvents.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.logger.Info(logging.Engine, logging.Shutdown, "live event ended", map[logging.ExtraKey]any{
		logging.RoomID: event.ID,
	})
	e.router.Publish(event.ID, ws.EventEnded, event)
	e.record(event.ID, organizerID, domain.ActionEventEnded, nil)
	return event, nil
}

// totalInteractions recomputes the interaction total from the stores: chat
// messages, poll votes, questions and photos.
func (e *Engine) totalInteractions(ctx context.Context, roomID string) (int64, error) {
	chat, err := e.repos.Chat.CountByLiveEvent(ctx, roomID)
	if err != nil {
		return 0, err
	}
	votes, err := e.repos.Polls.TotalVotes(ctx, roomID)
	if err != nil {
		return 0, err
	}
	questions, err := e.repos.Questions.CountByLiveEvent(ctx, roomID)
	if err != nil {
		return 0, err
	}
	photos, err := e.repos.Photos.CountByLiveEvent(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return chat + votes + questions + photos, nil
}
