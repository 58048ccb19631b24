package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stagelink/backend/internal/infrastructure/configs"
	"github.com/stagelink/backend/internal/infrastructure/logging"
)

// Client is one attendee connection. RoomID is set by the Registry on join
// and cleared on leave; outside of that, only the client's own read
// goroutine drives joins and leaves, so the field is stable during command
// handling.
type Client struct {
	ID          string
	UserID      string
	DisplayName string
	RoomID      string

	conn    *connWrapper
	send    chan *WSMessage
	done    chan struct{}
	once    sync.Once
	cfg     configs.WSConfig
	handler CommandHandler
	logger  logging.Logger
}

func NewClient(conn *websocket.Conn, userID, displayName string, cfg configs.WSConfig, handler CommandHandler, logger logging.Logger) *Client {
	sendBuffer := cfg.SendBufferSize
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		conn:        newConnWrapper(conn),
		send:        make(chan *WSMessage, sendBuffer),
		done:        make(chan struct{}),
		cfg:         cfg,
		handler:     handler,
		logger:      logger,
	}
}

// TrySend enqueues without blocking and reports success. The send channel is
// the bounded per-connection buffer: callers decide what a full buffer
// means (the Router drops the connection).
func (c *Client) TrySend(msg *WSMessage) bool {
	select {
	case <-c.done:
		return true // already closing, silently discard
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close tears the connection down exactly once. Both pumps exit and the
// read pump's disconnect hook runs the registry leave.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// ReadPump decodes inbound command envelopes and hands them to the handler.
// It owns the disconnect path: when the loop exits for any reason the
// handler is told to clean up this connection's session.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.handler.HandleDisconnect(c)
		c.Close()
	}()

	if c.cfg.ReadLimit > 0 {
		c.conn.conn.SetReadLimit(c.cfg.ReadLimit)
	}
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		var cmd Command
		if err := c.conn.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug(logging.WebSocket, logging.Session, "read error", map[logging.ExtraKey]any{
					logging.ConnectionID: c.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}
		_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		c.handler.HandleCommand(ctx, c, cmd)
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg, time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
