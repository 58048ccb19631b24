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

var validateQuestionText = validate.Field("question",
	validate.Required(),
	validate.MaxLength(1000),
)

var validateAnswerText = validate.Field("answer",
	validate.Required(),
	validate.MaxLength(2000),
)

// AskQuestion creates a pending Q&A question. Every ask is a new entity, so
// no entity lock is needed.
func (e *Engine) AskQuestion(ctx context.Context, c *ws.Client, text string) (*domain.Question, error) {
	event, err := e.liveRoom(ctx, c.RoomID)
	if err != nil {
		return nil, err
	}
	if !event.Settings.QAEnabled {
		return nil, domain.ErrFeatureDisabled
	}
	if err := validateQuestionText(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	question := domain.NewQuestion(event.ID, text, c.UserID, c.DisplayName)
	if err := e.repos.Questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.NewQAQuestion, question)
	e.record(event.ID, c.UserID, domain.ActionQuestionAsked, map[string]any{"questionId": question.ID})
	return question, nil
}

// UpvoteQuestion toggles the caller's upvote. Upvoting twice is a net
// no-op.
func (e *Engine) UpvoteQuestion(ctx context.Context, c *ws.Client, questionID string) error {
	lock := e.locks.get(questionID)
	lock.Lock()
	defer lock.Unlock()

	question, err := e.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := e.liveRoom(ctx, question.LiveEventID); err != nil {
		return err
	}

	added := question.ToggleUpvote(c.UserID)

	if err := e.repos.Questions.Update(ctx, question); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(question.LiveEventID, ws.QAUpvote, map[string]any{
		"questionId":  question.ID,
		"upvoteCount": question.UpvoteCount,
		"userId":      c.UserID,
		"upvoted":     added,
	})
	e.record(question.LiveEventID, c.UserID, domain.ActionQuestionUpvoted, map[string]any{"questionId": questionID})
	return nil
}

// AnswerQuestion marks a question answered. Organizer only; re-answering
// overwrites the previous answer.
func (e *Engine) AnswerQuestion(ctx context.Context, c *ws.Client, questionID, text string) error {
	lock := e.locks.get(questionID)
	lock.Lock()
	defer lock.Unlock()

	question, err := e.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	event, err := e.liveRoom(ctx, question.LiveEventID)
	if err != nil {
		return err
	}
	if err := e.requireOrganizer(ctx, event, c.UserID); err != nil {
		return err
	}
	if err := validateAnswerText(text); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	question.SetAnswer(text, c.UserID, time.Now())

	if err := e.repos.Questions.Update(ctx, question); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(question.LiveEventID, ws.QAAnswered, question)
	e.record(question.LiveEventID, c.UserID, domain.ActionQuestionAnswered, map[string]any{"questionId": questionID})
	return nil
}

// DismissQuestion drops a question from the queue without an answer.
// Organizer only; the room is told which question went away.
func (e *Engine) DismissQuestion(ctx context.Context, eventID, organizerID, questionID string) error {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return err
	}

	lock := e.locks.get(questionID)
	lock.Lock()
	defer lock.Unlock()

	question, err := e.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if question.LiveEventID != event.ID {
		return domain.ErrQuestionNotFound
	}

	question.Dismiss()

	if err := e.repos.Questions.Update(ctx, question); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(event.ID, ws.QADismissed, map[string]any{
		"questionId": question.ID,
	})
	e.record(event.ID, organizerID, domain.ActionQuestionDismissed, map[string]any{"questionId": questionID})
	return nil
}

func (e *Engine) getQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	question, err := e.repos.Questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return question, nil
}
