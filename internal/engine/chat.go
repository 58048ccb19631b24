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

var validateChatMessage = validate.Field("message",
	validate.Required(),
	validate.MaxLength(500),
)

var validateChatType = validate.Field("type",
	validate.OneOf("text", "emoji", "reaction"),
)

// SendChat appends a chat message and fans it out. Messages that trip the
// profanity filter are stored hidden and only the sender sees them.
func (e *Engine) SendChat(ctx context.Context, c *ws.Client, message, messageType string) (*domain.ChatMessage, error) {
	event, err := e.liveRoom(ctx, c.RoomID)
	if err != nil {
		return nil, err
	}
	if !event.Settings.ChatEnabled {
		return nil, domain.ErrFeatureDisabled
	}
	if err := validateChatMessage(message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if messageType != "" {
		if err := validateChatType(messageType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	chat := domain.NewChatMessage(event.ID, c.UserID, c.DisplayName, message, messageType)

	flagged := e.filter != nil && e.filter.ContainsProfanity(message)
	if flagged {
		chat.Hide("system", "profanity", time.Now())
	}

	if err := e.repos.Chat.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if flagged {
		e.router.SendDirect(c, &ws.WSMessage{Type: ws.ChatMessage, RoomID: event.ID, Data: chat})
	} else {
		e.router.Publish(event.ID, ws.ChatMessage, chat)
	}

	e.record(event.ID, c.UserID, domain.ActionChatSent, map[string]any{"messageId": chat.ID})
	return chat, nil
}

// HideMessage flips a message invisible for moderation. Organizer only; the
// room is told which message disappeared, never why.
func (e *Engine) HideMessage(ctx context.Context, eventID, organizerID, messageID, reason string) error {
	lock := e.locks.get(messageID)
	lock.Lock()
	defer lock.Unlock()

	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return err
	}

	message, err := e.repos.Chat.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if message.LiveEventID != event.ID {
		return domain.ErrMessageNotFound
	}

	message.Hide(organizerID, reason, time.Now())

	if err := e.repos.Chat.Update(ctx, message); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.ChatMessageHidden, map[string]any{
		"messageId": message.ID,
	})
	e.record(event.ID, organizerID, domain.ActionChatHidden, map[string]any{"messageId": messageID})
	return nil
}
