package ws

import (
	"context"
	"encoding/json"
)

// WSMessage is the outbound envelope delivered to connections.
type WSMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Command is the inbound envelope read from a connection.
type Command struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// CommandHandler receives decoded commands and disconnects from the read
// pump. The engine implements it.
type CommandHandler interface {
	HandleCommand(ctx context.Context, c *Client, cmd Command)
	HandleDisconnect(c *Client)
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

type ActiveUsersPayload struct {
	RoomID      string `json:"roomId"`
	ActiveUsers int    `json:"activeUsers"`
}

type TypingPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Typing      bool   `json:"typing"`
}

func NewErrorMessage(code, message string, retry bool) *WSMessage {
	return &WSMessage{
		Type: ErrorEvent,
		Data: ErrorPayload{
			Code:    code,
			Message: message,
			Retry:   retry,
		},
	}
}
