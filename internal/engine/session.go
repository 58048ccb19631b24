package engine

import (
	"context"
	"errors"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

// JoinRoom registers the connection in a live room, pushes the current
// member count to everyone and confirms to the caller with a full state
// snapshot so late joiners catch up.
func (e *Engine) JoinRoom(ctx context.Context, c *ws.Client, roomID string) error {
	if _, err := e.liveRoom(ctx, roomID); err != nil {
		return err
	}

	count, err := e.registry.Join(c, roomID)
	if err != nil {
		return err
	}

	e.metrics.SetActiveConnections(roomID, count)
	e.observeAttendance(ctx, roomID, count)
	e.router.Publish(roomID, ws.ActiveUsersUpdate, ws.ActiveUsersPayload{
		RoomID:      roomID,
		ActiveUsers: count,
	})

	snapshot, err := e.RoomSnapshot(ctx, roomID)
	if err != nil {
		// The join itself succeeded; the client starts from broadcasts.
		e.logger.Warn(logging.Engine, logging.Session, "snapshot unavailable on join", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	} else {
		e.router.SendDirect(c, &ws.WSMessage{Type: ws.JoinConfirmed, RoomID: roomID, Data: snapshot})
	}

	e.record(roomID, c.UserID, domain.ActionRoomJoined, nil)
	return nil
}

// LeaveRoom removes the connection from its room and updates the member
// count for the remaining attendees.
func (e *Engine) LeaveRoom(ctx context.Context, c *ws.Client) error {
	roomID, count, err := e.registry.Leave(c.ID)
	if err != nil {
		return err
	}

	e.metrics.SetActiveConnections(roomID, count)
	e.observeAttendance(ctx, roomID, count)
	e.router.Publish(roomID, ws.ActiveUsersUpdate, ws.ActiveUsersPayload{
		RoomID:      roomID,
		ActiveUsers: count,
	})

	e.record(roomID, c.UserID, domain.ActionRoomLeft, nil)
	return nil
}

// Typing relays a typing indicator to the room. Nothing is persisted.
func (e *Engine) Typing(c *ws.Client, typing bool) error {
	if c.RoomID == "" {
		return ws.ErrNotJoined
	}
	e.router.Publish(c.RoomID, ws.TypingUpdate, ws.TypingPayload{
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		Typing:      typing,
	})
	return nil
}

// HandleDisconnect is the read pump's cleanup hook: an ungraceful drop is
// treated as a leave.
func (e *Engine) HandleDisconnect(c *ws.Client) {
	if err := e.LeaveRoom(context.Background(), c); err != nil && !errors.Is(err, ws.ErrNotJoined) {
		e.logger.Warn(logging.Engine, logging.Session, "disconnect cleanup failed", map[logging.ExtraKey]any{
			logging.ConnectionID: c.ID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// observeAttendance is the join/leave fast path for the attendance metrics.
// It updates the stored counters immediately for responsiveness; the
// reconciliation loop corrects any drift from ungraceful disconnects. A
// store failure here is logged, never surfaced: membership already changed.
func (e *Engine) observeAttendance(ctx context.Context, roomID string, active int) {
	lock := e.locks.get(roomID)
	lock.Lock()
	defer lock.Unlock()

	event, err := e.repos.LiveEvents.GetByID(ctx, roomID)
	if err != nil {
		e.logger.Warn(logging.Engine, logging.Session, "attendance load failed", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}
	if !event.IsLive() {
		return
	}

	if !event.ObserveAttendance(active) {
		return
	}
	if err := e.repos.LiveEvents.Update(ctx, event); err != nil {
		e.logger.Warn(logging.Engine, logging.Session, "attendance update failed", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}
