package live

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/stagelink/backend/internal/infrastructure/auth"
	"github.com/stagelink/backend/internal/infrastructure/json"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Identity comes from the token, not the Origin header.
		return true
	},
}

// WebSocketHandler authenticates and upgrades an attendee connection, then
// runs the read and write pumps for its lifetime.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequestValue(r.Header.Get("Authorization"))
	}

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Session, "upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := ws.NewClient(conn, identity.UserID, identity.DisplayName, h.wsConfig, h.engine, h.logger)

	h.logger.Info(logging.WebSocket, logging.Session, "connection established", map[logging.ExtraKey]any{
		logging.ConnectionID: client.ID,
		logging.UserID:       identity.UserID,
	})

	go client.WritePump()
	client.ReadPump(context.Background())
}
