package live

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/stagelink/backend/internal/engine"
	"github.com/stagelink/backend/internal/infrastructure/auth"
	"github.com/stagelink/backend/internal/infrastructure/configs"
	"github.com/stagelink/backend/internal/infrastructure/json"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

type Handler struct {
	engine   *engine.Engine
	verifier auth.Verifier
	wsConfig configs.WSConfig
	logger   logging.Logger
}

func NewHandler(engine *engine.Engine, verifier auth.Verifier, wsConfig configs.WSConfig, logger logging.Logger) *Handler {
	return &Handler{
		engine:   engine,
		verifier: verifier,
		wsConfig: wsConfig,
		logger:   logger,
	}
}

// identify resolves the bearer token on the request. Writes the error
// response itself and returns false when the caller is anonymous.
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := auth.TokenFromRequestValue(r.Header.Get("Authorization"))

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return auth.Identity{}, false
	}
	return identity, true
}

func (h *Handler) StartEventHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req startEventRequest
	if r.ContentLength > 0 {
		if err := json.Read(r, &req); err != nil {
			json.WriteValidationError(w, err)
			return
		}
	}

	event, err := h.engine.StartEvent(r.Context(), chi.URLParam(r, "eventId"), identity.UserID, req.Settings)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, event)
}

func (h *Handler) EndEventHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	event, err := h.engine.EndEvent(r.Context(), chi.URLParam(r, "eventId"), identity.UserID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, event)
}

func (h *Handler) CreatePollHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req engine.CreatePollInput
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	poll, err := h.engine.CreatePoll(r.Context(), chi.URLParam(r, "eventId"), identity.UserID, req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, engine.NewPollView(poll))
}

func (h *Handler) ClosePollHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	poll, err := h.engine.ClosePoll(r.Context(), chi.URLParam(r, "eventId"), identity.UserID,
		chi.URLParam(r, "pollId"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, engine.NewPollView(poll))
}

func (h *Handler) CreateIcebreakerHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req createIcebreakerRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	icebreaker, err := h.engine.CreateIcebreaker(r.Context(), chi.URLParam(r, "eventId"), identity.UserID, req.Question)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, icebreaker)
}

func (h *Handler) ModeratePhotoHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req moderatePhotoRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	photo, err := h.engine.ModeratePhoto(r.Context(), chi.URLParam(r, "eventId"), identity.UserID,
		chi.URLParam(r, "photoId"), req.Approve)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, photo)
}

func (h *Handler) PendingPhotosHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	photos, err := h.engine.PendingPhotos(r.Context(), chi.URLParam(r, "eventId"), identity.UserID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, photos)
}

func (h *Handler) DismissQuestionHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	err := h.engine.DismissQuestion(r.Context(), chi.URLParam(r, "eventId"), identity.UserID,
		chi.URLParam(r, "questionId"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func (h *Handler) InteractionsHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.engine.InteractionHistory(r.Context(), chi.URLParam(r, "eventId"), identity.UserID, limit)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, logs)
}

func (h *Handler) HideMessageHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req hideMessageRequest
	if r.ContentLength > 0 {
		if err := json.Read(r, &req); err != nil {
			json.WriteValidationError(w, err)
			return
		}
	}

	err := h.engine.HideMessage(r.Context(), chi.URLParam(r, "eventId"), identity.UserID,
		chi.URLParam(r, "messageId"), req.Reason)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, map[string]string{"status": "hidden"})
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	event, err := h.engine.RoomSnapshotByEventID(r.Context(), eventID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	json.Write(w, http.StatusOK, event)
}

// writeEngineError translates the engine's error taxonomy into HTTP
// statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	code, _ := engine.ErrorCode(err)

	switch code {
	case ws.CodeUnauthorized:
		json.WriteError(w, http.StatusForbidden, err, "Not allowed")
	case ws.CodeNotFound:
		json.WriteError(w, http.StatusNotFound, err, "Not found")
	case ws.CodeConflict:
		json.WriteError(w, http.StatusConflict, err, "Conflict")
	case ws.CodeStoreFailed:
		json.WriteError(w, http.StatusServiceUnavailable, err, "Temporarily unavailable, retry")
	default:
		json.WriteValidationError(w, err)
	}
}
