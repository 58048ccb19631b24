package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type votePollPayload struct {
	PollID        string `json:"pollId"`
	OptionIndexes []int  `json:"optionIndexes"`
}

type askQuestionPayload struct {
	Question string `json:"question"`
}

type upvoteQuestionPayload struct {
	QuestionID string `json:"questionId"`
}

type answerQuestionPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type respondIcebreakerPayload struct {
	IcebreakerID string `json:"icebreakerId"`
	Response     string `json:"response"`
}

type likePhotoPayload struct {
	PhotoID string `json:"photoId"`
}

type sendChatPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// HandleCommand decodes one inbound envelope and runs the operation.
// Failures go back to the caller only, never into the room.
func (e *Engine) HandleCommand(ctx context.Context, c *ws.Client, cmd ws.Command) {
	err := e.dispatch(ctx, c, cmd)
	if err == nil {
		return
	}

	code, retry := ErrorCode(err)
	e.router.SendDirect(c, ws.NewErrorMessage(code, err.Error(), retry))

	if code == ws.CodeStoreFailed {
		e.logger.Error(logging.Engine, logging.ExternalService, "command failed on store", map[logging.ExtraKey]any{
			logging.ConnectionID: c.ID,
			logging.EventName:    cmd.Action,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (e *Engine) dispatch(ctx context.Context, c *ws.Client, cmd ws.Command) error {
	switch cmd.Action {
	case ws.ActionJoinRoom:
		var p joinRoomPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		if p.RoomID == "" {
			return fmt.Errorf("%w: roomId is required", ErrValidation)
		}
		return e.JoinRoom(ctx, c, p.RoomID)

	case ws.ActionLeaveRoom:
		return e.LeaveRoom(ctx, c)

	case ws.ActionVotePoll:
		var p votePollPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		return e.VotePoll(ctx, c, p.PollID, p.OptionIndexes)

	case ws.ActionAskQuestion:
		var p askQuestionPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		_, err := e.AskQuestion(ctx, c, p.Question)
		return err

	case ws.ActionUpvoteQuestion:
		var p upvoteQuestionPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		return e.UpvoteQuestion(ctx, c, p.QuestionID)

	case ws.ActionAnswerQuestion:
		var p answerQuestionPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		return e.AnswerQuestion(ctx, c, p.QuestionID, p.Answer)

	case ws.ActionRespondIcebreaker:
		var p respondIcebreakerPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		return e.RespondIcebreaker(ctx, c, p.IcebreakerID, p.Response)

	case ws.ActionSharePhoto:
		var p SharePhotoInput
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		_, err := e.SharePhoto(ctx, c, p)
		return err

	case ws.ActionLikePhoto:
		var p likePhotoPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		return e.LikePhoto(ctx, c, p.PhotoID)

	case ws.ActionSendChat:
		var p sendChatPayload
		if err := decode(cmd.Data, &p); err != nil {
			return err
		}
		_, err := e.SendChat(ctx, c, p.Message, p.Type)
		return err

	case ws.ActionTypingStart:
		return e.Typing(c, true)

	case ws.ActionTypingStop:
		return e.Typing(c, false)

	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, cmd.Action)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing payload", ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// ErrorCode maps an operation error to its wire code. Retry is true only
// for transient store failures.
func ErrorCode(err error) (code string, retry bool) {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return ws.CodeStoreFailed, true

	case errors.Is(err, domain.ErrNotOrganizer):
		return ws.CodeUnauthorized, false

	case errors.Is(err, domain.ErrLiveEventNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrIcebreakerNotFound),
		errors.Is(err, domain.ErrPhotoNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		return ws.CodeNotFound, false

	case errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrAlreadyResponded),
		errors.Is(err, domain.ErrAlreadyLive),
		errors.Is(err, domain.ErrEventEnded),
		errors.Is(err, domain.ErrEventNotLive),
		errors.Is(err, domain.ErrFeatureDisabled),
		errors.Is(err, domain.ErrPollClosed),
		errors.Is(err, domain.ErrPollExpired),
		errors.Is(err, domain.ErrIcebreakerClosed),
		errors.Is(err, domain.ErrPhotoAlreadyHandled),
		errors.Is(err, ws.ErrAlreadyJoined):
		return ws.CodeConflict, false

	default:
		return ws.CodeValidation, false
	}
}
