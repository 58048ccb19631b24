package ws

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyJoined = errors.New("connection already joined a different room")
	ErrNotJoined     = errors.New("connection has not joined a room")
)

// Registry is the source of truth for which connection is currently present
// in which room. It is purely in-memory: a process restart loses membership
// and clients re-join on reconnect.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // roomID -> connID -> client
	conns map[string]*Client            // connID -> registered client
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Client),
		conns: make(map[string]*Client),
	}
}

// Join registers the connection in the room and returns the new member
// count. A connection may belong to at most one room at a time; joining the
// room it is already in is a no-op.
func (r *Registry) Join(c *Client, roomID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.conns[c.ID]; ok {
		if existing.RoomID != roomID {
			return 0, ErrAlreadyJoined
		}
		return len(r.rooms[roomID]), nil
	}

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		r.rooms[roomID] = room
	}

	c.RoomID = roomID
	room[c.ID] = c
	r.conns[c.ID] = c

	return len(room), nil
}

// Leave removes the connection from whichever room it was in and returns
// that room and the remaining member count.
func (r *Registry) Leave(connID string) (string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return "", 0, ErrNotJoined
	}

	roomID := c.RoomID
	delete(r.conns, connID)

	room, ok := r.rooms[roomID]
	if !ok {
		return roomID, 0, nil
	}

	delete(room, connID)
	count := len(room)
	if count == 0 {
		delete(r.rooms, roomID)
	}

	c.RoomID = ""
	return roomID, count, nil
}

// Count returns the current member count of a room.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// MembersOf returns a snapshot of the room's connections.
func (r *Registry) MembersOf(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	members := make([]*Client, 0, len(room))
	for _, c := range room {
		members = append(members, c)
	}
	return members
}

// Get returns the registered client for a connection id.
func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}
